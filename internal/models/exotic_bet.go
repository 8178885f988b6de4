package models

import (
	"fmt"
	"strings"
)

// BetType identifies an exotic wager shape.
type BetType string

const (
	BetTypeExacta     BetType = "exacta"
	BetTypeTrifecta   BetType = "trifecta"
	BetTypeSuperfecta BetType = "superfecta"
)

// AllBetTypes returns the supported bet types in report order.
func AllBetTypes() []BetType {
	return []BetType{BetTypeExacta, BetTypeTrifecta, BetTypeSuperfecta}
}

// ParseBetType parses a bet type name case-insensitively.
func ParseBetType(s string) (BetType, error) {
	bt := BetType(strings.ToLower(strings.TrimSpace(s)))
	if !bt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBetType, s)
	}
	return bt, nil
}

// Valid reports whether bt is one of the supported bet types.
func (bt BetType) Valid() bool {
	switch bt {
	case BetTypeExacta, BetTypeTrifecta, BetTypeSuperfecta:
		return true
	}
	return false
}

// Arity is the number of finishing positions the bet covers.
func (bt BetType) Arity() int {
	switch bt {
	case BetTypeExacta:
		return 2
	case BetTypeTrifecta:
		return 3
	case BetTypeSuperfecta:
		return 4
	}
	return 0
}

// TakeoutRetention is the fraction of the odds product paid back after track takeout.
func (bt BetType) TakeoutRetention() float64 {
	switch bt {
	case BetTypeExacta:
		return 0.80
	case BetTypeTrifecta:
		return 0.75
	case BetTypeSuperfecta:
		return 0.70
	}
	return 0
}

// MinimumPayout is the floor applied to estimated payout odds.
func (bt BetType) MinimumPayout() float64 {
	switch bt {
	case BetTypeExacta:
		return 2.0
	case BetTypeTrifecta:
		return 5.0
	case BetTypeSuperfecta:
		return 10.0
	}
	return 0
}

// DefaultMaxCombinations is the default number of combinations retained per type.
func (bt BetType) DefaultMaxCombinations() int {
	switch bt {
	case BetTypeExacta:
		return 20
	case BetTypeTrifecta:
		return 15
	case BetTypeSuperfecta:
		return 10
	}
	return 0
}

// ExoticBet is a scored ordered combination.
type ExoticBet struct {
	BetType         BetType  `db:"bet_type" json:"bet_type"`
	Combination     []string `db:"combination" json:"combination"`
	Probability     float64  `db:"probability" json:"probability"`
	PayoutOdds      float64  `db:"payout_odds" json:"payout_odds"`
	ExpectedValue   float64  `db:"expected_value" json:"expected_value"`
	KellyFraction   float64  `db:"kelly_fraction" json:"kelly_fraction"`
	ConfidenceScore float64  `db:"confidence_score" json:"confidence_score"`
}

// ComboString renders the combination as "a-b-c".
func (b ExoticBet) ComboString() string {
	return strings.Join(b.Combination, "-")
}
