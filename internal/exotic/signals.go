package exotic

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/models"
)

// SignalGenerator filters profitable combinations into ranked signals and
// records them in a shared history.
type SignalGenerator struct {
	minEV    float64
	bankroll float64
	history  *SignalHistory
	now      func() time.Time
	log      *logger.OptimizerLogger
}

// NewSignalGenerator creates a signal generator writing into history.
func NewSignalGenerator(minEV, bankroll float64, history *SignalHistory, now func() time.Time, log *logger.OptimizerLogger) *SignalGenerator {
	if history == nil {
		history = NewSignalHistory(DefaultHistorySize)
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewOptimizerLogger(nil)
	}
	return &SignalGenerator{
		minEV:    minEV,
		bankroll: bankroll,
		history:  history,
		now:      now,
		log:      log,
	}
}

// GenerateSignals keeps bets whose expected value exceeds the threshold and
// returns them as signals ordered by strength. The signals are also appended
// to the history.
func (g *SignalGenerator) GenerateSignals(bets []models.ExoticBet) []models.Signal {
	ts := g.now().UTC()
	signals := make([]models.Signal, 0)

	for _, bet := range bets {
		if !(bet.ExpectedValue > g.minEV) {
			continue
		}
		combo := make([]string, len(bet.Combination))
		copy(combo, bet.Combination)

		signals = append(signals, models.Signal{
			ID:               uuid.New(),
			BetType:          bet.BetType,
			Combination:      combo,
			Probability:      bet.Probability,
			PayoutOdds:       bet.PayoutOdds,
			ExpectedValue:    bet.ExpectedValue,
			KellyFraction:    bet.KellyFraction,
			ConfidenceScore:  bet.ConfidenceScore,
			SignalStrength:   SignalStrength(bet),
			RiskLevel:        AssessRisk(bet.Probability),
			RecommendedStake: g.bankroll * bet.KellyFraction,
			Timestamp:        ts,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].SignalStrength > signals[j].SignalStrength
	})

	g.history.Append(signals...)
	g.log.LogSignalGeneration(len(bets), len(signals), g.history.Len(), g.minEV)
	return signals
}

// Top returns the n strongest signals across the whole history.
func (g *SignalGenerator) Top(n int) []models.Signal {
	return g.history.Top(n)
}

// History exposes the underlying signal history.
func (g *SignalGenerator) History() *SignalHistory {
	return g.history
}

// SignalStrength scores a bet from its EV, confidence and Kelly fraction.
func SignalStrength(bet models.ExoticBet) float64 {
	evComponent := clamp01(math.Min(bet.ExpectedValue*2, 1))
	confidenceComponent := clamp01(bet.ConfidenceScore)
	kellyComponent := clamp01(math.Min(bet.KellyFraction*4, 1))
	return 0.40*evComponent + 0.35*confidenceComponent + 0.25*kellyComponent
}

// AssessRisk buckets a combination by its probability of landing.
func AssessRisk(probability float64) models.RiskLevel {
	switch {
	case probability > 0.10:
		return models.RiskLevelLow
	case probability > 0.05:
		return models.RiskLevelMedium
	case probability > 0.01:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelVeryHigh
	}
}
