// Package provider supplies model win probabilities from an upstream service.
package provider

import (
	"context"

	"github.com/yourusername/clever-exotics/internal/models"
)

// Provider returns win probabilities keyed by horse ID. Horses absent from the
// result have no estimate. Values are untrusted and are clamped downstream.
type Provider interface {
	WinProbabilities(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error)
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error)

// WinProbabilities implements Provider.
func (f Func) WinProbabilities(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error) {
	return f(ctx, raceID, horses)
}
