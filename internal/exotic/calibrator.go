// Package exotic scores exacta, trifecta and superfecta combinations from
// per-horse win probabilities and market odds.
package exotic

import (
	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/models"
)

// degenerateImplied stands in for the implied probability of a horse whose
// odds are zero or negative.
const degenerateImplied = 0.01

// Calibrator blends model win probabilities with the market's view.
type Calibrator struct {
	modelWeight  float64
	marketWeight float64
	log          *logger.OptimizerLogger
}

// NewCalibrator creates a calibrator with the given blend weights.
func NewCalibrator(modelWeight, marketWeight float64, log *logger.OptimizerLogger) *Calibrator {
	if log == nil {
		log = logger.NewOptimizerLogger(nil)
	}
	return &Calibrator{modelWeight: modelWeight, marketWeight: marketWeight, log: log}
}

// MarketImplied returns each horse's implied probability normalized over the field.
func MarketImplied(horses []models.Horse) []float64 {
	implied := make([]float64, len(horses))
	var total float64
	for i, h := range horses {
		if h.Odds > 0 {
			implied[i] = 1 / h.Odds
		} else {
			implied[i] = degenerateImplied
		}
		total += implied[i]
	}
	if total <= 0 {
		for i := range implied {
			implied[i] = 0
		}
		return implied
	}
	for i := range implied {
		implied[i] /= total
	}
	return implied
}

// Calibrate returns new horses whose win, place and show probabilities reflect
// the weighted blend of model and market. The blended field is not renormalized.
func (c *Calibrator) Calibrate(horses []models.Horse) []models.Horse {
	if len(horses) == 0 {
		return []models.Horse{}
	}

	market := MarketImplied(horses)
	n := len(horses)
	out := make([]models.Horse, n)
	var sum float64

	for i, h := range horses {
		win := clamp01(c.modelWeight*clamp01(h.WinProbability) + c.marketWeight*market[i])
		h.WinProbability = win
		h.PlaceProbability = PlaceProbability(win, n)
		h.ShowProbability = ShowProbability(win, n)
		out[i] = h
		sum += win
	}

	c.log.LogCalibration(n, sum, c.modelWeight, c.marketWeight)
	return out
}

// PlaceProbability derives a top-two finish probability from a win probability.
func PlaceProbability(win float64, fieldSize int) float64 {
	switch {
	case fieldSize <= 4:
		return min(win*2.5, 0.95)
	case fieldSize <= 8:
		return min(win*2.2, 0.90)
	default:
		return min(win*1.8, 0.85)
	}
}

// ShowProbability derives a top-three finish probability from a win probability.
func ShowProbability(win float64, fieldSize int) float64 {
	switch {
	case fieldSize <= 5:
		return min(win*3.0, 0.98)
	case fieldSize <= 10:
		return min(win*2.5, 0.95)
	default:
		return min(win*2.0, 0.90)
	}
}
