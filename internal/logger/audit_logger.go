// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	if baseLogger == nil {
		baseLogger = NewDiscardLogger()
	}
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRunPersisted logs a stored optimization run.
func (al *AuditLogger) LogRunPersisted(runID, raceID string, combinations, signals int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":       runID,
		"race_id":      raceID,
		"combinations": combinations,
		"signals":      signals,
		"timestamp":    timestamp.Unix(),
	}).Info("Optimization run persisted")
}

// LogSignalsPublished logs signals handed to a publication sink.
func (al *AuditLogger) LogSignalsPublished(sink, raceID string, count int) {
	al.WithFields(logrus.Fields{
		"sink":    sink,
		"race_id": raceID,
		"count":   count,
	}).Info("Signals published")
}

// LogRetentionPurge logs a retention sweep.
func (al *AuditLogger) LogRetentionPurge(cutoff time.Time, deleted int64) {
	al.WithFields(logrus.Fields{
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
		"deleted": deleted,
	}).Info("Signal retention purge completed")
}

// LogConfigOverride logs a per-request override of optimizer settings.
func (al *AuditLogger) LogConfigOverride(raceID, parameterName string, oldValue, newValue interface{}) {
	al.WithFields(logrus.Fields{
		"race_id":        raceID,
		"parameter_name": parameterName,
		"old_value":      oldValue,
		"new_value":      newValue,
	}).Info("Optimizer parameter overridden")
}
