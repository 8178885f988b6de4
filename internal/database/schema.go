package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS optimization_runs (
		id                      UUID PRIMARY KEY,
		race_id                 TEXT NOT NULL,
		started_at              TIMESTAMPTZ NOT NULL,
		completed_at            TIMESTAMPTZ NOT NULL,
		total_horses            INTEGER NOT NULL,
		total_combinations      INTEGER NOT NULL,
		profitable_signals      INTEGER NOT NULL,
		avg_expected_value      DOUBLE PRECISION NOT NULL,
		max_expected_value      DOUBLE PRECISION NOT NULL,
		total_kelly_allocation  DOUBLE PRECISION NOT NULL,
		processing_time_seconds DOUBLE PRECISION NOT NULL,
		config_snapshot         JSONB NOT NULL DEFAULT '{}'::jsonb,
		optimization_version    TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_optimization_runs_race ON optimization_runs (race_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS exotic_bet_results (
		id               BIGSERIAL PRIMARY KEY,
		run_id           UUID NOT NULL REFERENCES optimization_runs (id) ON DELETE CASCADE,
		bet_type         TEXT NOT NULL,
		combination      TEXT[] NOT NULL,
		probability      DOUBLE PRECISION NOT NULL,
		payout_odds      DOUBLE PRECISION NOT NULL,
		expected_value   DOUBLE PRECISION NOT NULL,
		kelly_fraction   DOUBLE PRECISION NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exotic_bet_results_run ON exotic_bet_results (run_id)`,
	`CREATE TABLE IF NOT EXISTS ev_signals (
		id                UUID PRIMARY KEY,
		run_id            UUID REFERENCES optimization_runs (id) ON DELETE CASCADE,
		bet_type          TEXT NOT NULL,
		combination       TEXT[] NOT NULL,
		probability       DOUBLE PRECISION NOT NULL,
		payout_odds       DOUBLE PRECISION NOT NULL,
		expected_value    DOUBLE PRECISION NOT NULL,
		kelly_fraction    DOUBLE PRECISION NOT NULL,
		confidence_score  DOUBLE PRECISION NOT NULL,
		signal_strength   DOUBLE PRECISION NOT NULL,
		risk_level        TEXT NOT NULL,
		recommended_stake NUMERIC(14, 2) NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ev_signals_created ON ev_signals (created_at DESC)`,
}

// EnsureSchema creates the tables used by the repositories if they are missing
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
