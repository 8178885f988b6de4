package exotic

import (
	"fmt"
	"sort"

	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/models"
)

// Generator turns joint probabilities into scored, ranked exotic bets.
type Generator struct {
	engine         *Engine
	minProbability float64
	kellyCap       float64
	log            *logger.OptimizerLogger
}

// NewGenerator creates a combination generator.
func NewGenerator(engine *Engine, minProbability, kellyCap float64, log *logger.OptimizerLogger) *Generator {
	if engine == nil {
		engine = NewEngine()
	}
	if log == nil {
		log = logger.NewOptimizerLogger(nil)
	}
	return &Generator{
		engine:         engine,
		minProbability: minProbability,
		kellyCap:       kellyCap,
		log:            log,
	}
}

// Generate scores every combination of betType above the probability floor,
// ranks them by expected value and keeps the best maxResults. A non-positive
// maxResults selects the bet type's default cap.
func (g *Generator) Generate(horses []models.Horse, betType models.BetType, maxResults int) ([]models.ExoticBet, error) {
	if !betType.Valid() {
		return nil, fmt.Errorf("generate combinations: %w: %q", models.ErrInvalidBetType, betType)
	}
	if maxResults <= 0 {
		maxResults = betType.DefaultMaxCombinations()
	}

	entries, err := g.engine.Enumerate(horses, betType)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", betType, err)
	}

	byID := make(map[string]models.Horse, len(horses))
	for _, h := range horses {
		byID[h.ID] = h
	}

	arity := betType.Arity()
	bets := make([]models.ExoticBet, 0, len(entries))
	members := make([]models.Horse, arity)
	odds := make([]float64, arity)

	for _, jp := range entries {
		if jp.Probability < g.minProbability {
			continue
		}
		ids := jp.Combination.IDs()
		for i, id := range ids {
			members[i] = byID[id]
			odds[i] = members[i].Odds
		}

		payout := EstimatePayout(betType, odds)
		bets = append(bets, models.ExoticBet{
			BetType:         betType,
			Combination:     ids,
			Probability:     jp.Probability,
			PayoutOdds:      payout,
			ExpectedValue:   ExpectedValue(jp.Probability, payout),
			KellyFraction:   KellyFraction(jp.Probability, payout, g.kellyCap),
			ConfidenceScore: ConfidenceScore(members, jp.Probability),
		})
	}

	sort.SliceStable(bets, func(i, j int) bool {
		return bets[i].ExpectedValue > bets[j].ExpectedValue
	})
	enumerated := len(bets)
	if len(bets) > maxResults {
		bets = bets[:maxResults]
	}

	g.log.LogCombinationGeneration(string(betType), min(len(horses), poolSize(betType, len(horses))), enumerated, len(bets))
	return bets, nil
}

func poolSize(betType models.BetType, fieldSize int) int {
	switch betType {
	case models.BetTypeTrifecta:
		return trifectaPoolSize
	case models.BetTypeSuperfecta:
		return superfectaPoolSize
	}
	return fieldSize
}
