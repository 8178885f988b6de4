package exotic

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-exotics/internal/models"
)

// CalibratedHorse is the per-horse section of a report.
type CalibratedHorse struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Odds                   float64 `json:"odds"`
	OriginalWinProbability float64 `json:"original_win_probability"`
	WinProbability         float64 `json:"calibrated_win_prob"`
	PlaceProbability       float64 `json:"place_prob"`
	ShowProbability        float64 `json:"show_prob"`
}

// NewCalibratedHorses pairs each calibrated horse with its input win probability.
func NewCalibratedHorses(original, calibrated []models.Horse) []CalibratedHorse {
	out := make([]CalibratedHorse, len(calibrated))
	for i, h := range calibrated {
		out[i] = CalibratedHorse{
			ID:               h.ID,
			Name:             h.Name,
			Odds:             h.Odds,
			WinProbability:   h.WinProbability,
			PlaceProbability: h.PlaceProbability,
			ShowProbability:  h.ShowProbability,
		}
		if i < len(original) {
			out[i].OriginalWinProbability = original[i].WinProbability
		}
	}
	return out
}

// Summary aggregates every combination generated in a run.
type Summary struct {
	Empty                bool    `json:"-"`
	TotalCombinations    int     `json:"total_combinations_analyzed"`
	ProfitableCount      int     `json:"profitable_opportunities"`
	ProfitabilityRate    float64 `json:"profitability_rate"`
	AverageExpectedValue float64 `json:"average_expected_value"`
	MaxExpectedValue     float64 `json:"max_expected_value"`
	TotalKellyAllocation float64 `json:"total_kelly_allocation"`
}

// Summarize computes summary statistics over bets and the signals drawn from them.
func Summarize(bets []models.ExoticBet, signals []models.Signal) Summary {
	if len(bets) == 0 {
		return Summary{Empty: true}
	}

	var sumEV, kelly float64
	maxEV := bets[0].ExpectedValue
	for _, b := range bets {
		sumEV += b.ExpectedValue
		if b.ExpectedValue > maxEV {
			maxEV = b.ExpectedValue
		}
		if b.ExpectedValue > 0 {
			kelly += b.KellyFraction
		}
	}

	return Summary{
		TotalCombinations:    len(bets),
		ProfitableCount:      len(signals),
		ProfitabilityRate:    float64(len(signals)) / float64(len(bets)),
		AverageExpectedValue: sumEV / float64(len(bets)),
		MaxExpectedValue:     maxEV,
		TotalKellyAllocation: kelly,
	}
}

// ToMap renders the summary; an empty summary renders as an empty map.
func (s Summary) ToMap() map[string]any {
	if s.Empty {
		return map[string]any{}
	}
	return map[string]any{
		"total_combinations_analyzed": s.TotalCombinations,
		"profitable_opportunities":    s.ProfitableCount,
		"profitability_rate":          s.ProfitabilityRate,
		"average_expected_value":      s.AverageExpectedValue,
		"max_expected_value":          s.MaxExpectedValue,
		"total_kelly_allocation":      s.TotalKellyAllocation,
	}
}

// Report is the outcome of one optimization run.
type Report struct {
	RunID            uuid.UUID
	Timestamp        time.Time
	TotalHorses      int
	CalibratedHorses []CalibratedHorse
	Combinations     map[models.BetType]int
	Bets             []models.ExoticBet
	Signals          []models.Signal
	TopOpportunities []models.Signal
	Summary          Summary
	ProcessingTime   time.Duration
	Config           Config
}

// CombinationCount returns the total number of generated combinations.
func (r *Report) CombinationCount() int {
	return len(r.Bets)
}

// ToMap renders the report as plain nested maps and slices.
func (r *Report) ToMap() map[string]any {
	horses := make([]any, 0, len(r.CalibratedHorses))
	for _, h := range r.CalibratedHorses {
		horses = append(horses, map[string]any{
			"id":                       h.ID,
			"name":                     h.Name,
			"odds":                     h.Odds,
			"original_win_probability": h.OriginalWinProbability,
			"calibrated_win_prob":      h.WinProbability,
			"place_prob":               h.PlaceProbability,
			"show_prob":                h.ShowProbability,
		})
	}

	combos := map[string]any{}
	for _, bt := range models.AllBetTypes() {
		combos[string(bt)] = r.Combinations[bt]
	}

	return map[string]any{
		"run_id":                  r.RunID.String(),
		"timestamp":               r.Timestamp.Format(time.RFC3339Nano),
		"total_horses":            r.TotalHorses,
		"calibrated_horses":       horses,
		"exotic_combinations":     combos,
		"profitable_signals":      len(r.Signals),
		"signals":                 SignalsToMaps(r.Signals),
		"top_opportunities":       SignalsToMaps(r.TopOpportunities),
		"summary_stats":           r.Summary.ToMap(),
		"processing_time_seconds": r.ProcessingTime.Seconds(),
	}
}

// SignalsToMaps renders signals as plain maps.
func SignalsToMaps(signals []models.Signal) []any {
	out := make([]any, 0, len(signals))
	for _, s := range signals {
		out = append(out, SignalToMap(s))
	}
	return out
}

// SignalToMap renders one signal as a plain map.
func SignalToMap(s models.Signal) map[string]any {
	combo := make([]any, len(s.Combination))
	for i, id := range s.Combination {
		combo[i] = id
	}
	return map[string]any{
		"id":                s.ID.String(),
		"bet_type":          string(s.BetType),
		"combination":       combo,
		"probability":       s.Probability,
		"payout_odds":       s.PayoutOdds,
		"expected_value":    s.ExpectedValue,
		"kelly_fraction":    s.KellyFraction,
		"confidence_score":  s.ConfidenceScore,
		"signal_strength":   s.SignalStrength,
		"risk_level":        string(s.RiskLevel),
		"recommended_stake": s.RecommendedStake,
		"potential_profit":  s.PotentialProfit(),
		"max_loss":          s.MaxLoss(),
		"combination_key":   s.Bet().ComboString(),
		"timestamp":         s.Timestamp.Format(time.RFC3339Nano),
	}
}

// BetsToMaps renders exotic bets as plain maps.
func BetsToMaps(bets []models.ExoticBet) []any {
	out := make([]any, 0, len(bets))
	for _, b := range bets {
		combo := make([]any, len(b.Combination))
		for i, id := range b.Combination {
			combo[i] = id
		}
		out = append(out, map[string]any{
			"bet_type":         string(b.BetType),
			"combination":      combo,
			"probability":      b.Probability,
			"payout_odds":      b.PayoutOdds,
			"expected_value":   b.ExpectedValue,
			"kelly_fraction":   b.KellyFraction,
			"confidence_score": b.ConfidenceScore,
		})
	}
	return out
}

// Performance summarizes the strongest signals in the history.
type Performance struct {
	SignalsAnalyzed       int
	AverageSignalStrength float64
	AverageExpectedValue  float64
	TotalRecommendedStake float64
	RiskDistribution      map[models.RiskLevel]int
	BetTypeDistribution   map[models.BetType]int
}

// ToMap renders the performance summary as plain maps.
func (p Performance) ToMap() map[string]any {
	risk := map[string]any{}
	for _, lvl := range models.AllRiskLevels() {
		risk[string(lvl)] = p.RiskDistribution[lvl]
	}
	types := map[string]any{}
	for _, bt := range models.AllBetTypes() {
		types[string(bt)] = p.BetTypeDistribution[bt]
	}
	return map[string]any{
		"signals_analyzed":        p.SignalsAnalyzed,
		"avg_signal_strength":     p.AverageSignalStrength,
		"avg_expected_value":      p.AverageExpectedValue,
		"total_recommended_stake": p.TotalRecommendedStake,
		"risk_distribution":       risk,
		"bet_type_distribution":   types,
	}
}

// AnalyzePerformance aggregates a set of signals.
func AnalyzePerformance(signals []models.Signal) Performance {
	p := Performance{
		SignalsAnalyzed:     len(signals),
		RiskDistribution:    make(map[models.RiskLevel]int),
		BetTypeDistribution: make(map[models.BetType]int),
	}
	if len(signals) == 0 {
		return p
	}
	var strength, ev float64
	for _, s := range signals {
		strength += s.SignalStrength
		ev += s.ExpectedValue
		p.TotalRecommendedStake += s.RecommendedStake
		p.RiskDistribution[s.RiskLevel]++
		p.BetTypeDistribution[s.BetType]++
	}
	p.AverageSignalStrength = strength / float64(len(signals))
	p.AverageExpectedValue = ev / float64(len(signals))
	return p
}
