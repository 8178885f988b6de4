package exotic

import (
	"math"

	"github.com/yourusername/clever-exotics/internal/models"
)

// EstimatePayout approximates the pari-mutuel payout of a combination as the
// product of the member odds after takeout, floored at the bet type minimum.
func EstimatePayout(betType models.BetType, odds []float64) float64 {
	product := 1.0
	for _, o := range odds {
		product *= o
	}
	return math.Max(product*betType.TakeoutRetention(), betType.MinimumPayout())
}

// ExpectedValue is the expected net return per unit stake.
func ExpectedValue(probability, payoutOdds float64) float64 {
	return probability*payoutOdds - 1
}

// KellyFraction returns the Kelly stake fraction clamped to [0, cap].
func KellyFraction(probability, payoutOdds, cap float64) float64 {
	b := payoutOdds - 1
	if b <= 0 || probability <= 0 {
		return 0
	}
	q := 1 - probability
	kelly := (b*probability - q) / b
	if math.IsNaN(kelly) || kelly <= 0 {
		return 0
	}
	return math.Min(kelly, cap)
}

// ConfidenceScore combines the members' mean ratings with the combination's
// probability into a [0, 1] score.
func ConfidenceScore(members []models.Horse, probability float64) float64 {
	if len(members) == 0 {
		return 0
	}
	var form, speed, class float64
	for _, h := range members {
		form += h.FormRating
		speed += h.SpeedRating
		class += h.ClassRating
	}
	n := float64(len(members))
	form /= n
	speed /= n
	class /= n

	probabilityFactor := math.Min(probability*100, 10) / 10
	score := (0.30*form + 0.25*speed + 0.25*probabilityFactor + 0.20*class) / 100
	return clamp01(score)
}
