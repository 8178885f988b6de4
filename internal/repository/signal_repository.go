package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/yourusername/clever-exotics/internal/database"
	"github.com/yourusername/clever-exotics/internal/models"
)

// PostgresSignalRepository implements SignalRepository for PostgreSQL
type PostgresSignalRepository struct {
	db *database.DB
}

// NewPostgresSignalRepository creates a new signal repository
func NewPostgresSignalRepository(db *database.DB) SignalRepository {
	return &PostgresSignalRepository{db: db}
}

// ListRecent returns the newest persisted signals
func (r *PostgresSignalRepository) ListRecent(ctx context.Context, limit int) ([]models.Signal, error) {
	return querySignals(ctx, r.db.Pool(), `ORDER BY created_at DESC LIMIT $1`, normalizeLimit(limit))
}

// ListByRun returns the signals of one run, strongest first
func (r *PostgresSignalRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]models.Signal, error) {
	return querySignals(ctx, r.db.Pool(), `WHERE run_id = $1 ORDER BY signal_strength DESC`, runID)
}

// DeleteOlderThan removes signals created before cutoff
func (r *PostgresSignalRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM ev_signals WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old signals: %w", err)
	}
	return tag.RowsAffected(), nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func querySignals(ctx context.Context, q querier, clause string, args ...any) ([]models.Signal, error) {
	rows, err := q.Query(ctx, `
		SELECT id, run_id, bet_type, combination, probability, payout_odds, expected_value,
		       kelly_fraction, confidence_score, signal_strength, risk_level, recommended_stake, created_at
		FROM ev_signals `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var (
			s        models.Signal
			runID    *uuid.UUID
			betType  string
			risk     string
			stakeAmt decimal.Decimal
		)
		if err := rows.Scan(&s.ID, &runID, &betType, &s.Combination, &s.Probability, &s.PayoutOdds,
			&s.ExpectedValue, &s.KellyFraction, &s.ConfidenceScore, &s.SignalStrength,
			&risk, &stakeAmt, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if runID != nil {
			s.RunID = *runID
		}
		s.BetType = models.BetType(betType)
		s.RiskLevel = models.RiskLevel(risk)
		s.RecommendedStake = stakeAmt.InexactFloat64()
		s.Timestamp = s.Timestamp.UTC()
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
