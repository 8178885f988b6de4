package logger

import (
	"github.com/sirupsen/logrus"
)

// ProviderLogger logs calls to the upstream probability provider.
type ProviderLogger struct {
	*logrus.Entry
}

// NewProviderLogger creates a new provider logger.
func NewProviderLogger(baseLogger *logrus.Logger) *ProviderLogger {
	if baseLogger == nil {
		baseLogger = NewDiscardLogger()
	}
	return &ProviderLogger{
		Entry: baseLogger.WithField("component", "provider"),
	}
}

// LogPredictionRequest logs a batch request for win probabilities.
func (pl *ProviderLogger) LogPredictionRequest(raceID string, horses int, cacheHits int, latencyMs int64) {
	pl.WithFields(logrus.Fields{
		"race_id":    raceID,
		"horses":     horses,
		"cache_hits": cacheHits,
		"latency_ms": latencyMs,
	}).Info("Win probabilities requested")
}

// LogProviderFailure logs a failed request that the caller will fall back from.
func (pl *ProviderLogger) LogProviderFailure(raceID string, err error) {
	pl.WithFields(logrus.Fields{
		"race_id": raceID,
		"error":   err.Error(),
	}).Warn("Probability provider unavailable, using defaults")
}
