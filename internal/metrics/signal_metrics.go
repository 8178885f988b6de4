package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/clever-exotics/internal/exotic"
)

var (
	SignalsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_generated_total",
		Help:      "Total number of signals generated by bet type and risk level",
	}, []string{"bet_type", "risk_level"})

	SignalStrength = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "signal_strength",
		Help:      "Distribution of signal strength scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"bet_type"})

	SignalsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_published_total",
		Help:      "Total number of signals handed to publication sinks",
	}, []string{"sink", "outcome"})
)

// Collector records optimizer reports into the global metrics. It satisfies
// exotic.Observer.
type Collector struct {
	history *exotic.SignalHistory
}

// NewCollector creates a collector. history may be nil.
func NewCollector(history *exotic.SignalHistory) *Collector {
	InitRegistry()
	return &Collector{history: history}
}

// ObserveOptimization records a completed optimization run.
func (c *Collector) ObserveOptimization(report *exotic.Report) {
	if report == nil {
		return
	}
	OptimizationsTotal.Inc()
	OptimizationDuration.Observe(report.ProcessingTime.Seconds())

	for bt, n := range report.Combinations {
		CombinationsGeneratedTotal.WithLabelValues(string(bt)).Add(float64(n))
	}
	for _, s := range report.Signals {
		SignalsGeneratedTotal.WithLabelValues(string(s.BetType), string(s.RiskLevel)).Inc()
		SignalStrength.WithLabelValues(string(s.BetType)).Observe(s.SignalStrength)
	}
	LastProfitabilityRate.Set(report.Summary.ProfitabilityRate)

	if c.history != nil {
		HistorySize.Set(float64(c.history.Len()))
	}
}

// RecordSignalsPublished records a publication attempt.
func RecordSignalsPublished(sink string, count int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SignalsPublishedTotal.WithLabelValues(sink, outcome).Add(float64(count))
}
