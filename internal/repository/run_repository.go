package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/clever-exotics/internal/database"
	"github.com/yourusername/clever-exotics/internal/models"
)

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run repository
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

const runColumns = `id, race_id, started_at, completed_at, total_horses, total_combinations,
	profitable_signals, avg_expected_value, max_expected_value, total_kelly_allocation,
	processing_time_seconds, config_snapshot, optimization_version`

// SaveRun inserts a run, its combinations and its signals
func (r *PostgresRunRepository) SaveRun(ctx context.Context, run *models.OptimizationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Version == "" {
		run.Version = models.OptimizationVersion
	}
	snapshot := run.ConfigSnapshot
	if snapshot == nil {
		snapshot = map[string]any{}
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO optimization_runs (`+runColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			run.ID, run.RaceID, run.StartedAt, run.CompletedAt, run.TotalHorses, run.TotalCombinations,
			run.ProfitableSignals, run.AverageExpectedValue, run.MaxExpectedValue, run.TotalKellyAllocation,
			run.ProcessingTimeSeconds, snapshot, run.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to insert optimization run: %w", err)
		}

		if err := insertCombinations(ctx, tx, run.ID, run.Combinations); err != nil {
			return err
		}
		return insertSignals(ctx, tx, run.ID, run.Signals)
	})
}

func insertCombinations(ctx context.Context, tx pgx.Tx, runID uuid.UUID, bets []models.ExoticBet) error {
	if len(bets) == 0 {
		return nil
	}

	columns := []string{"run_id", "bet_type", "combination", "probability", "payout_odds",
		"expected_value", "kelly_fraction", "confidence_score"}

	rows := make([][]any, len(bets))
	for i, b := range bets {
		rows[i] = []any{runID, string(b.BetType), b.Combination, b.Probability, b.PayoutOdds,
			b.ExpectedValue, b.KellyFraction, b.ConfidenceScore}
	}

	count, err := tx.CopyFrom(ctx, pgx.Identifier{"exotic_bet_results"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert combinations: %w", err)
	}
	if count != int64(len(bets)) {
		return fmt.Errorf("inserted %d combinations, expected %d", count, len(bets))
	}
	return nil
}

func insertSignals(ctx context.Context, tx pgx.Tx, runID uuid.UUID, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range signals {
		batch.Queue(`
			INSERT INTO ev_signals (id, run_id, bet_type, combination, probability, payout_odds,
			                        expected_value, kelly_fraction, confidence_score, signal_strength,
			                        risk_level, recommended_stake, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			s.ID, runID, string(s.BetType), s.Combination, s.Probability, s.PayoutOdds,
			s.ExpectedValue, s.KellyFraction, s.ConfidenceScore, s.SignalStrength,
			string(s.RiskLevel), stakeToDecimal(s.RecommendedStake), s.Timestamp,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range signals {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert signal: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert signals: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its combinations and signals
func (r *PostgresRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.OptimizationRun, error) {
	pool := r.db.Pool()

	run, err := scanRun(pool.QueryRow(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get optimization run: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT bet_type, combination, probability, payout_odds, expected_value, kelly_fraction, confidence_score
		FROM exotic_bet_results
		WHERE run_id = $1
		ORDER BY expected_value DESC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query combinations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.ExoticBet
		var betType string
		if err := rows.Scan(&betType, &b.Combination, &b.Probability, &b.PayoutOdds,
			&b.ExpectedValue, &b.KellyFraction, &b.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("failed to scan combination: %w", err)
		}
		b.BetType = models.BetType(betType)
		run.Combinations = append(run.Combinations, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	signals, err := querySignals(ctx, pool, `WHERE run_id = $1 ORDER BY signal_strength DESC`, id)
	if err != nil {
		return nil, err
	}
	run.Signals = signals

	return run, nil
}

// ListRecentByRace returns the latest runs for a race without their children
func (r *PostgresRunRepository) ListRecentByRace(ctx context.Context, raceID string, limit int) ([]*models.OptimizationRun, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT `+runColumns+`
		FROM optimization_runs
		WHERE race_id = $1
		ORDER BY started_at DESC
		LIMIT $2`, raceID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by race: %w", err)
	}
	defer rows.Close()

	var runs []*models.OptimizationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan optimization run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*models.OptimizationRun, error) {
	run := &models.OptimizationRun{}
	err := row.Scan(
		&run.ID, &run.RaceID, &run.StartedAt, &run.CompletedAt, &run.TotalHorses, &run.TotalCombinations,
		&run.ProfitableSignals, &run.AverageExpectedValue, &run.MaxExpectedValue, &run.TotalKellyAllocation,
		&run.ProcessingTimeSeconds, &run.ConfigSnapshot, &run.Version,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
