package exotic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/models"
)

type recordingObserver struct {
	reports []*Report
}

func (r *recordingObserver) ObserveOptimization(report *Report) {
	r.reports = append(r.reports, report)
}

func newTestOptimizer(t *testing.T, opts ...Option) *Optimizer {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	o, err := NewOptimizer(DefaultConfig(), opts...)
	require.NoError(t, err)
	return o
}

func TestOptimizeSampleRace(t *testing.T) {
	obs := &recordingObserver{}
	o := newTestOptimizer(t, WithObserver(obs))

	report, err := o.Optimize(context.Background(), sampleHorses())
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalHorses)
	assert.Equal(t, map[models.BetType]int{
		models.BetTypeExacta:     20,
		models.BetTypeTrifecta:   15,
		models.BetTypeSuperfecta: 10,
	}, report.Combinations)
	assert.Len(t, report.Bets, 45)
	assert.Equal(t, models.BetTypeExacta, report.Bets[0].BetType)
	assert.Equal(t, models.BetTypeSuperfecta, report.Bets[44].BetType)

	assert.Len(t, report.Signals, 28)
	assert.Len(t, report.TopOpportunities, 10)
	assert.Equal(t, report.Signals[:10], report.TopOpportunities)
	assert.Equal(t, []string{"1", "2", "3", "4"}, report.TopOpportunities[0].Combination)
	for _, s := range report.Signals {
		assert.Greater(t, s.ExpectedValue, DefaultMinExpectedValue)
		assert.Equal(t, fixedTime, s.Timestamp)
	}

	summary := report.Summary
	assert.False(t, summary.Empty)
	assert.Equal(t, 45, summary.TotalCombinations)
	assert.Equal(t, 28, summary.ProfitableCount)
	assert.InDelta(t, 28.0/45.0, summary.ProfitabilityRate, 1e-12)
	assert.InDelta(t, 8.369072, summary.MaxExpectedValue, 1e-6)
	assert.InDelta(t, 1.923849, summary.AverageExpectedValue, 1e-6)
	assert.InDelta(t, 0.243796, summary.TotalKellyAllocation, 1e-6)

	require.Len(t, report.CalibratedHorses, 6)
	assert.Equal(t, 0.25, report.CalibratedHorses[0].OriginalWinProbability)
	assert.InDelta(t, 0.249209, report.CalibratedHorses[0].WinProbability, 1e-6)

	require.Len(t, obs.reports, 1)
	assert.Same(t, report, obs.reports[0])
	assert.Equal(t, 28, o.History().Len())
}

func TestOptimizeEmptyField(t *testing.T) {
	o := newTestOptimizer(t)

	report, err := o.Optimize(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.Summary.Empty)
	assert.Empty(t, report.Signals)
	assert.Equal(t, 0, report.Combinations[models.BetTypeExacta])
	assert.Equal(t, map[string]any{}, report.ToMap()["summary_stats"])
}

func TestOptimizeRejectsDuplicateIDs(t *testing.T) {
	horses := sampleHorses()
	horses[3].ID = "1"

	_, err := newTestOptimizer(t).Optimize(context.Background(), horses)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateHorse)

	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "id", ve.Field)
}

func TestOptimizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOptimizer(t).Optimize(ctx, sampleHorses())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptimizeIsDeterministicAcrossRuns(t *testing.T) {
	o := newTestOptimizer(t)
	first, err := o.Optimize(context.Background(), sampleHorses())
	require.NoError(t, err)
	second, err := o.Optimize(context.Background(), sampleHorses())
	require.NoError(t, err)

	assert.Equal(t, first.Bets, second.Bets)
	assert.Equal(t, first.CalibratedHorses, second.CalibratedHorses)
	assert.Equal(t, 56, o.History().Len())
}

func TestWithOverridesSharesHistory(t *testing.T) {
	base := newTestOptimizer(t)
	strict := 1.0
	maxExacta := 5

	tuned, err := base.WithOverrides(Overrides{MinExpectedValue: &strict, MaxExacta: &maxExacta})
	require.NoError(t, err)
	assert.Equal(t, DefaultMinExpectedValue, base.Config().MinExpectedValue)
	assert.Equal(t, 5, tuned.Config().MaxExacta)

	report, err := tuned.Optimize(context.Background(), sampleHorses())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Combinations[models.BetTypeExacta])
	for _, s := range report.Signals {
		assert.Greater(t, s.ExpectedValue, 1.0)
	}
	assert.Equal(t, len(report.Signals), base.History().Len())

	same, err := base.WithOverrides(Overrides{})
	require.NoError(t, err)
	assert.Same(t, base, same)

	bad := -1
	_, err = base.WithOverrides(Overrides{MaxTrifecta: &bad})
	assert.Error(t, err)
}

func TestCombinationsEntryPoint(t *testing.T) {
	o := newTestOptimizer(t)

	bets, err := o.Combinations(context.Background(), sampleHorses(), models.BetTypeTrifecta, 5)
	require.NoError(t, err)
	assert.Len(t, bets, 5)
	assert.Equal(t, []string{"1", "2", "6"}, bets[0].Combination)

	bets, err = o.Combinations(context.Background(), sampleHorses(), models.BetTypeSuperfecta, 0)
	require.NoError(t, err)
	assert.Len(t, bets, 10)
}

func TestSignalsEntryPointAndPerformance(t *testing.T) {
	o := newTestOptimizer(t)

	signals, bets, err := o.Signals(context.Background(), sampleHorses())
	require.NoError(t, err)
	assert.Len(t, bets, 45)
	assert.Len(t, signals, 28)

	perf := o.Performance(20)
	assert.Equal(t, 20, perf.SignalsAnalyzed)
	assert.Greater(t, perf.AverageSignalStrength, 0.0)
	assert.Equal(t, 10, perf.BetTypeDistribution[models.BetTypeSuperfecta])

	total := 0
	for _, n := range perf.RiskDistribution {
		total += n
	}
	assert.Equal(t, 20, total)
	assert.Len(t, o.TopSignals(3), 3)
}

func TestReportToMapIsPlain(t *testing.T) {
	report, err := newTestOptimizer(t).Optimize(context.Background(), sampleHorses())
	require.NoError(t, err)

	m := report.ToMap()
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(6), decoded["total_horses"])
	assert.Equal(t, float64(28), decoded["profitable_signals"])

	combos := decoded["exotic_combinations"].(map[string]any)
	assert.Equal(t, float64(15), combos["trifecta"])

	top := decoded["top_opportunities"].([]any)
	first := top[0].(map[string]any)
	assert.Equal(t, "superfecta", first["bet_type"])
	assert.Equal(t, []any{"1", "2", "3", "4"}, first["combination"])
	assert.Equal(t, "HIGH", first["risk_level"])
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.MarketWeight = 0.4 }},
		{"negative weight", func(c *Config) { c.ModelWeight = -0.2; c.MarketWeight = 1.2 }},
		{"kelly cap zero", func(c *Config) { c.KellyCap = 0 }},
		{"kelly cap above one", func(c *Config) { c.KellyCap = 1.5 }},
		{"zero cap", func(c *Config) { c.MaxSuperfecta = 0 }},
		{"zero bankroll", func(c *Config) { c.Bankroll = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := NewOptimizer(cfg)
			assert.Error(t, err)
		})
	}

	cfg := DefaultConfig()
	cfg.ModelWeight, cfg.MarketWeight = 0.7005, 0.3
	assert.NoError(t, cfg.Validate())
}

func TestFromConfig(t *testing.T) {
	cfg, err := FromConfig(&config.OptimizationConfig{
		ModelWeight:               0.6,
		MarketWeight:              0.4,
		MinProbabilityThreshold:   0.002,
		MaxExactaCombinations:     12,
		MaxTrifectaCombinations:   8,
		MaxSuperfectaCombinations: 4,
		MinEVThreshold:            0.08,
		MaxKellyFraction:          0.15,
		Bankroll:                  500,
		SignalHistorySize:         200,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxCombinations(models.BetTypeExacta))
	assert.Equal(t, 0.15, cfg.KellyCap)

	_, err = FromConfig(nil)
	assert.Error(t, err)
}

func TestOptimizeOverconfidentModelKeepsProbabilitiesBounded(t *testing.T) {
	horses := []models.Horse{horse("a", 0.9, 3), horse("b", 0.9, 3), horse("c", 0.9, 3)}

	report, err := newTestOptimizer(t).Optimize(context.Background(), horses)
	require.NoError(t, err)
	for _, b := range report.Bets {
		assert.GreaterOrEqual(t, b.Probability, 0.0)
		assert.LessOrEqual(t, b.Probability, 1.0)
	}
	for _, s := range report.Signals {
		assert.LessOrEqual(t, s.Probability, 1.0)
		assert.LessOrEqual(t, s.KellyFraction, DefaultConfig().KellyCap)
	}
}
