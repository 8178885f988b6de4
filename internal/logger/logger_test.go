package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	log := NewLogger("shouting")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestOptimizerLoggerCalibration(t *testing.T) {
	log, buf := setupTestLogger()
	optimizerLogger := NewOptimizerLogger(log)

	optimizerLogger.LogCalibration(6, 0.997, 0.7, 0.3)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "optimizer", logEntry["component"])
	assert.Equal(t, float64(6), logEntry["field_size"])
}

func TestOptimizerLoggerOptimization(t *testing.T) {
	log, buf := setupTestLogger()
	optimizerLogger := NewOptimizerLogger(log)

	optimizerLogger.LogOptimization("run_1", 6, 45, 3, 0.42, 1500*time.Microsecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "run_1", logEntry["run_id"])
	assert.Equal(t, 1.5, logEntry["duration_ms"])
}

func TestOptimizerLoggerNilBase(t *testing.T) {
	optimizerLogger := NewOptimizerLogger(nil)
	assert.NotPanics(t, func() {
		optimizerLogger.LogSignalGeneration(10, 2, 2, 0.05)
	})
}

func TestAuditLoggerRunPersisted(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRunPersisted("run_1", "race_123", 45, 3, time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "race_123", logEntry["race_id"])
}

func TestAuditLoggerRetentionPurge(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRetentionPurge(time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC), 12)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2024-02-03T12:00:00Z", logEntry["cutoff"])
	assert.Equal(t, float64(12), logEntry["deleted"])
}

func TestProviderLoggerFailure(t *testing.T) {
	log, buf := setupTestLogger()
	providerLogger := NewProviderLogger(log)

	providerLogger.LogProviderFailure("race_123", errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "connection refused", logEntry["error"])
}

func BenchmarkOptimizerLoggerOptimization(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	optimizerLogger := NewOptimizerLogger(log)

	for i := 0; i < b.N; i++ {
		optimizerLogger.LogOptimization("run_1", 6, 45, 3, 0.42, time.Millisecond)
	}
}
