package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Total number of probability provider requests by status",
	}, []string{"status"})

	ProviderRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Latency of probability provider requests",
		Buckets:   prometheus.DefBuckets,
	})

	ProviderCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_cache_hit_ratio",
		Help:      "Hit ratio of the provider probability cache",
	})

	RetentionPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_purged_signals_total",
		Help:      "Total number of persisted signals removed by retention",
	})
)

// RecordProviderRequest records a provider call.
func RecordProviderRequest(status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(status).Inc()
	ProviderRequestDuration.Observe(durationSeconds)
}

// UpdateProviderCacheHitRatio sets the cache hit ratio gauge.
func UpdateProviderCacheHitRatio(ratio float64) {
	ProviderCacheHitRatio.Set(ratio)
}

// RecordRetentionPurge records purged signals.
func RecordRetentionPurge(deleted int64) {
	RetentionPurgedTotal.Add(float64(deleted))
}
