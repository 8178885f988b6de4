// Package logger provides optimizer-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// OptimizerLogger provides dedicated logging for the optimization pipeline.
type OptimizerLogger struct {
	*logrus.Entry
}

// NewOptimizerLogger creates a new optimizer logger. A nil base logger yields a
// logger that discards output.
func NewOptimizerLogger(baseLogger *logrus.Logger) *OptimizerLogger {
	if baseLogger == nil {
		baseLogger = NewDiscardLogger()
	}
	return &OptimizerLogger{
		Entry: baseLogger.WithField("component", "optimizer"),
	}
}

// LogCalibration logs a calibration pass over a field.
func (ol *OptimizerLogger) LogCalibration(fieldSize int, calibratedWinSum, modelWeight, marketWeight float64) {
	ol.WithFields(logrus.Fields{
		"field_size":         fieldSize,
		"calibrated_win_sum": calibratedWinSum,
		"model_weight":       modelWeight,
		"market_weight":      marketWeight,
	}).Debug("Probabilities calibrated")
}

// LogCombinationGeneration logs one bet type's generation pass.
func (ol *OptimizerLogger) LogCombinationGeneration(betType string, poolSize, enumerated, kept int) {
	ol.WithFields(logrus.Fields{
		"bet_type":   betType,
		"pool_size":  poolSize,
		"enumerated": enumerated,
		"kept":       kept,
	}).Debug("Combinations generated")
}

// LogSignalGeneration logs the result of signal filtering.
func (ol *OptimizerLogger) LogSignalGeneration(candidates, signals, historySize int, minEV float64) {
	ol.WithFields(logrus.Fields{
		"candidates":   candidates,
		"signals":      signals,
		"history_size": historySize,
		"min_ev":       minEV,
	}).Info("Signals generated")
}

// LogOptimization logs a completed optimization run.
func (ol *OptimizerLogger) LogOptimization(runID string, horses, combinations, signals int, maxEV float64, duration time.Duration) {
	ol.WithFields(logrus.Fields{
		"run_id":       runID,
		"horses":       horses,
		"combinations": combinations,
		"signals":      signals,
		"max_ev":       maxEV,
		"duration_ms":  float64(duration.Microseconds()) / 1000.0,
	}).Info("Optimization completed")
}
