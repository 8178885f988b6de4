package exotic

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/models"
)

// Default optimizer parameters.
const (
	DefaultModelWeight      = 0.7
	DefaultMarketWeight     = 0.3
	DefaultMinProbability   = 0.001
	DefaultMinExpectedValue = 0.05
	DefaultKellyCap         = 0.25
	DefaultBankroll         = 1000.0
	DefaultHistorySize      = 1000

	weightTolerance = 0.001
)

// Config holds the tunable parameters of the optimization pipeline.
type Config struct {
	ModelWeight      float64
	MarketWeight     float64
	MinProbability   float64
	MaxExacta        int
	MaxTrifecta      int
	MaxSuperfecta    int
	MinExpectedValue float64
	KellyCap         float64
	Bankroll         float64
	HistorySize      int
}

// DefaultConfig returns the standard optimizer parameters.
func DefaultConfig() Config {
	return Config{
		ModelWeight:      DefaultModelWeight,
		MarketWeight:     DefaultMarketWeight,
		MinProbability:   DefaultMinProbability,
		MaxExacta:        models.BetTypeExacta.DefaultMaxCombinations(),
		MaxTrifecta:      models.BetTypeTrifecta.DefaultMaxCombinations(),
		MaxSuperfecta:    models.BetTypeSuperfecta.DefaultMaxCombinations(),
		MinExpectedValue: DefaultMinExpectedValue,
		KellyCap:         DefaultKellyCap,
		Bankroll:         DefaultBankroll,
		HistorySize:      DefaultHistorySize,
	}
}

// FromConfig converts app config to optimizer config
func FromConfig(cfg *config.OptimizationConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("optimization config is required")
	}

	c := Config{
		ModelWeight:      cfg.ModelWeight,
		MarketWeight:     cfg.MarketWeight,
		MinProbability:   cfg.MinProbabilityThreshold,
		MaxExacta:        cfg.MaxExactaCombinations,
		MaxTrifecta:      cfg.MaxTrifectaCombinations,
		MaxSuperfecta:    cfg.MaxSuperfectaCombinations,
		MinExpectedValue: cfg.MinEVThreshold,
		KellyCap:         cfg.MaxKellyFraction,
		Bankroll:         cfg.Bankroll,
		HistorySize:      cfg.SignalHistorySize,
	}

	return c, c.Validate()
}

// Validate validates optimizer parameters
func (c Config) Validate() error {
	if c.ModelWeight < 0 || c.ModelWeight > 1 || c.MarketWeight < 0 || c.MarketWeight > 1 {
		return fmt.Errorf("calibration weights must be between 0 and 1")
	}
	if math.Abs(c.ModelWeight+c.MarketWeight-1) > weightTolerance {
		return fmt.Errorf("model and market weights must sum to 1, got %.4f", c.ModelWeight+c.MarketWeight)
	}
	if c.MinProbability < 0 || c.MinProbability >= 1 {
		return fmt.Errorf("min probability must be in [0, 1)")
	}
	if c.MaxExacta <= 0 || c.MaxTrifecta <= 0 || c.MaxSuperfecta <= 0 {
		return fmt.Errorf("combination caps must be positive")
	}
	if c.KellyCap <= 0 || c.KellyCap > 1 {
		return fmt.Errorf("kelly cap must be in (0, 1]")
	}
	if c.Bankroll <= 0 {
		return fmt.Errorf("bankroll must be positive")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("signal history size must be positive")
	}
	return nil
}

// MaxCombinations returns the retention cap for a bet type.
func (c Config) MaxCombinations(betType models.BetType) int {
	switch betType {
	case models.BetTypeExacta:
		return c.MaxExacta
	case models.BetTypeTrifecta:
		return c.MaxTrifecta
	case models.BetTypeSuperfecta:
		return c.MaxSuperfecta
	}
	return 0
}

// Overrides are per-request adjustments to a Config. Nil fields keep the base value.
type Overrides struct {
	MinExpectedValue *float64 `json:"min_ev_threshold,omitempty"`
	MaxExacta        *int     `json:"max_exacta,omitempty"`
	MaxTrifecta      *int     `json:"max_trifecta,omitempty"`
	MaxSuperfecta    *int     `json:"max_superfecta,omitempty"`
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.MinExpectedValue == nil && o.MaxExacta == nil && o.MaxTrifecta == nil && o.MaxSuperfecta == nil
}

// Apply returns a copy of c with the overrides applied.
func (o Overrides) Apply(c Config) Config {
	if o.MinExpectedValue != nil {
		c.MinExpectedValue = *o.MinExpectedValue
	}
	if o.MaxExacta != nil {
		c.MaxExacta = *o.MaxExacta
	}
	if o.MaxTrifecta != nil {
		c.MaxTrifecta = *o.MaxTrifecta
	}
	if o.MaxSuperfecta != nil {
		c.MaxSuperfecta = *o.MaxSuperfecta
	}
	return c
}

// Snapshot renders the config as a plain map, for persistence and reports.
func (c Config) Snapshot() map[string]any {
	return map[string]any{
		"model_weight":                c.ModelWeight,
		"market_weight":               c.MarketWeight,
		"min_probability_threshold":   c.MinProbability,
		"max_exacta_combinations":     c.MaxExacta,
		"max_trifecta_combinations":   c.MaxTrifecta,
		"max_superfecta_combinations": c.MaxSuperfecta,
		"min_ev_threshold":            c.MinExpectedValue,
		"max_kelly_fraction":          c.KellyCap,
		"bankroll":                    c.Bankroll,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
