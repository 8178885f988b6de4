package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-exotics/internal/models"
)

// RunRepository defines the interface for optimization run data access
type RunRepository interface {
	// SaveRun stores the run with its combinations and signals in one transaction
	SaveRun(ctx context.Context, run *models.OptimizationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.OptimizationRun, error)
	ListRecentByRace(ctx context.Context, raceID string, limit int) ([]*models.OptimizationRun, error)
}

// SignalRepository defines the interface for persisted signal access
type SignalRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.Signal, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]models.Signal, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
