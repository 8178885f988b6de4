package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel buckets a combination by its probability of hitting.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelVeryHigh RiskLevel = "VERY_HIGH"
)

// AllRiskLevels returns the risk levels from safest to riskiest.
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelVeryHigh}
}

// Signal is an actionable recommendation derived from a profitable ExoticBet.
type Signal struct {
	ID               uuid.UUID `db:"id" json:"id"`
	RunID            uuid.UUID `db:"run_id" json:"run_id,omitempty"`
	BetType          BetType   `db:"bet_type" json:"bet_type"`
	Combination      []string  `db:"combination" json:"combination"`
	Probability      float64   `db:"probability" json:"probability"`
	PayoutOdds       float64   `db:"payout_odds" json:"payout_odds"`
	ExpectedValue    float64   `db:"expected_value" json:"expected_value"`
	KellyFraction    float64   `db:"kelly_fraction" json:"kelly_fraction"`
	ConfidenceScore  float64   `db:"confidence_score" json:"confidence_score"`
	SignalStrength   float64   `db:"signal_strength" json:"signal_strength"`
	RiskLevel        RiskLevel `db:"risk_level" json:"risk_level"`
	RecommendedStake float64   `db:"recommended_stake" json:"recommended_stake"`
	Timestamp        time.Time `db:"created_at" json:"timestamp"`
}

// Bet returns the underlying combination.
func (s Signal) Bet() ExoticBet {
	return ExoticBet{
		BetType:         s.BetType,
		Combination:     s.Combination,
		Probability:     s.Probability,
		PayoutOdds:      s.PayoutOdds,
		ExpectedValue:   s.ExpectedValue,
		KellyFraction:   s.KellyFraction,
		ConfidenceScore: s.ConfidenceScore,
	}
}

// PotentialProfit is the net return of the recommended stake if the bet lands.
func (s Signal) PotentialProfit() float64 {
	return s.RecommendedStake * (s.PayoutOdds - 1)
}

// MaxLoss is the amount lost if the bet misses.
func (s Signal) MaxLoss() float64 {
	return s.RecommendedStake
}
