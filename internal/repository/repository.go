// Package repository persists optimization runs and signals in PostgreSQL.
package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/clever-exotics/internal/database"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// Repositories holds all repository implementations
type Repositories struct {
	Run    RunRepository
	Signal SignalRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Run:    NewPostgresRunRepository(db),
		Signal: NewPostgresSignalRepository(db),
	}, nil
}

// normalizeLimit bounds a caller-supplied page size
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// stakeToDecimal converts a stake to a currency amount rounded to cents
func stakeToDecimal(stake float64) decimal.Decimal {
	return decimal.NewFromFloat(stake).Round(2)
}
