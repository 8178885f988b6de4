// Package metrics provides the centralized Prometheus registry for the optimizer service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exotic_optimizer"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	OptimizationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimizations_total",
		Help:      "Total number of completed optimization runs",
	})
	OptimizationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimization_errors_total",
		Help:      "Total number of rejected or failed optimization requests by reason",
	}, []string{"reason"})
	CombinationsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "combinations_generated_total",
		Help:      "Total number of scored combinations retained by bet type",
	}, []string{"bet_type"})
	RunsPersistedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_persisted_total",
		Help:      "Total number of optimization runs written to storage by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	HistorySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_size",
		Help:      "Number of signals retained in the in-process history",
	})
	LastProfitabilityRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_profitability_rate",
		Help:      "Profitability rate of the most recent optimization run",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected live signal stream clients",
	})
)

// Histogram metrics
var (
	OptimizationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimization_duration_seconds",
		Help:      "Duration of optimization runs in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(OptimizationsTotal)
		registry.MustRegister(OptimizationErrorsTotal)
		registry.MustRegister(CombinationsGeneratedTotal)
		registry.MustRegister(RunsPersistedTotal)

		registry.MustRegister(HistorySize)
		registry.MustRegister(LastProfitabilityRate)
		registry.MustRegister(StreamClients)

		registry.MustRegister(OptimizationDuration)
		registry.MustRegister(HTTPRequestDuration)

		registry.MustRegister(SignalsGeneratedTotal)
		registry.MustRegister(SignalStrength)
		registry.MustRegister(SignalsPublishedTotal)

		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(ProviderRequestDuration)
		registry.MustRegister(ProviderCacheHitRatio)
		registry.MustRegister(RetentionPurgedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordOptimizationError records a rejected or failed request.
func RecordOptimizationError(reason string) {
	OptimizationErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordRunPersisted records the outcome of a storage write.
func RecordRunPersisted(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	RunsPersistedTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(route, method, status string, durationSeconds float64) {
	HTTPRequestDuration.WithLabelValues(route, method, status).Observe(durationSeconds)
}

// SetStreamClients updates the live stream client gauge.
func SetStreamClients(n int) {
	StreamClients.Set(float64(n))
}
