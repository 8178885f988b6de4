package exotic

import (
	"github.com/yourusername/clever-exotics/internal/models"
)

// sampleHorses is a six-runner field with model probabilities summing to one.
func sampleHorses() []models.Horse {
	return []models.Horse{
		{ID: "1", Name: "Thunder Bolt", WinProbability: 0.25, PlaceProbability: 0.45, ShowProbability: 0.65, Odds: 4.0, Jockey: "J. Smith", Trainer: "T. Brown", FormRating: 85, SpeedRating: 92, ClassRating: 88},
		{ID: "2", Name: "Lightning Strike", WinProbability: 0.20, PlaceProbability: 0.40, ShowProbability: 0.60, Odds: 5.0, Jockey: "M. Johnson", Trainer: "R. Wilson", FormRating: 80, SpeedRating: 88, ClassRating: 85},
		{ID: "3", Name: "Storm Runner", WinProbability: 0.18, PlaceProbability: 0.38, ShowProbability: 0.58, Odds: 5.5, Jockey: "L. Davis", Trainer: "S. Miller", FormRating: 82, SpeedRating: 90, ClassRating: 86},
		{ID: "4", Name: "Wind Chaser", WinProbability: 0.15, PlaceProbability: 0.35, ShowProbability: 0.55, Odds: 6.5, Jockey: "K. Wilson", Trainer: "D. Taylor", FormRating: 78, SpeedRating: 85, ClassRating: 82},
		{ID: "5", Name: "Fire Bolt", WinProbability: 0.12, PlaceProbability: 0.30, ShowProbability: 0.50, Odds: 8.0, Jockey: "P. Anderson", Trainer: "C. Moore", FormRating: 75, SpeedRating: 82, ClassRating: 79},
		{ID: "6", Name: "Swift Arrow", WinProbability: 0.10, PlaceProbability: 0.25, ShowProbability: 0.45, Odds: 10.0, Jockey: "R. Thomas", Trainer: "J. Jackson", FormRating: 72, SpeedRating: 78, ClassRating: 76},
	}
}

func horse(id string, win, odds float64) models.Horse {
	return models.Horse{
		ID:             id,
		Name:           "Horse " + id,
		WinProbability: win,
		Odds:           odds,
		FormRating:     models.DefaultFormRating,
		SpeedRating:    models.DefaultSpeedRating,
		ClassRating:    models.DefaultClassRating,
	}
}

func newTestCalibrator() *Calibrator {
	return NewCalibrator(DefaultModelWeight, DefaultMarketWeight, nil)
}
