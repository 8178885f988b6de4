package models

import (
	"time"

	"github.com/google/uuid"
)

// OptimizationVersion is stamped on every persisted run.
const OptimizationVersion = "1.0.0"

// OptimizationRun is the persisted record of one optimizer invocation.
type OptimizationRun struct {
	ID                    uuid.UUID      `db:"id" json:"id"`
	RaceID                string         `db:"race_id" json:"race_id"`
	StartedAt             time.Time      `db:"started_at" json:"started_at"`
	CompletedAt           time.Time      `db:"completed_at" json:"completed_at"`
	TotalHorses           int            `db:"total_horses" json:"total_horses"`
	TotalCombinations     int            `db:"total_combinations" json:"total_combinations"`
	ProfitableSignals     int            `db:"profitable_signals" json:"profitable_signals"`
	AverageExpectedValue  float64        `db:"avg_expected_value" json:"avg_expected_value"`
	MaxExpectedValue      float64        `db:"max_expected_value" json:"max_expected_value"`
	TotalKellyAllocation  float64        `db:"total_kelly_allocation" json:"total_kelly_allocation"`
	ProcessingTimeSeconds float64        `db:"processing_time_seconds" json:"processing_time_seconds"`
	ConfigSnapshot        map[string]any `db:"config_snapshot" json:"config_snapshot"`
	Version               string         `db:"optimization_version" json:"optimization_version"`
	Horses                []Horse        `db:"-" json:"horses,omitempty"`
	Combinations          []ExoticBet    `db:"-" json:"combinations,omitempty"`
	Signals               []Signal       `db:"-" json:"signals,omitempty"`
}
