package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Defaults applied to optional horse fields.
const (
	DefaultWinProbability   = 0.1
	DefaultPlaceProbability = 0.2
	DefaultShowProbability  = 0.3
	DefaultFormRating       = 75.0
	DefaultSpeedRating      = 80.0
	DefaultClassRating      = 75.0
	UnknownConnection       = "Unknown"
)

// Horse is a single runner in a race together with its model and market view.
type Horse struct {
	ID               string  `db:"horse_id" json:"id"`
	Name             string  `db:"horse_name" json:"name"`
	WinProbability   float64 `db:"win_probability" json:"win_probability"`
	PlaceProbability float64 `db:"place_probability" json:"place_probability"`
	ShowProbability  float64 `db:"show_probability" json:"show_probability"`
	Odds             float64 `db:"odds" json:"odds"`
	Jockey           string  `db:"jockey" json:"jockey"`
	Trainer          string  `db:"trainer" json:"trainer"`
	FormRating       float64 `db:"form_rating" json:"form_rating"`
	SpeedRating      float64 `db:"speed_rating" json:"speed_rating"`
	ClassRating      float64 `db:"class_rating" json:"class_rating"`
}

// HorseID accepts both JSON strings and JSON numbers.
type HorseID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *HorseID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = HorseID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("horse id must be a string or number: %w", err)
	}
	*id = HorseID(n.String())
	return nil
}

// HorseInput is the transport form of a horse. Optional fields are pointers so
// that absent values can be told apart from zeros.
type HorseInput struct {
	ID               HorseID  `json:"id" validate:"required"`
	Name             string   `json:"name" validate:"required"`
	Odds             *float64 `json:"odds" validate:"required"`
	WinProbability   *float64 `json:"win_probability,omitempty"`
	PlaceProbability *float64 `json:"place_probability,omitempty"`
	ShowProbability  *float64 `json:"show_probability,omitempty"`
	Jockey           string   `json:"jockey,omitempty"`
	Trainer          string   `json:"trainer,omitempty"`
	FormRating       *float64 `json:"form_rating,omitempty"`
	SpeedRating      *float64 `json:"speed_rating,omitempty"`
	ClassRating      *float64 `json:"class_rating,omitempty"`
}

// HasWinProbability reports whether the caller supplied a model probability.
func (in HorseInput) HasWinProbability() bool {
	return in.WinProbability != nil
}

// ToHorse converts the input into a Horse, filling defaults for absent fields.
func (in HorseInput) ToHorse() Horse {
	h := Horse{
		ID:               string(in.ID),
		Name:             in.Name,
		WinProbability:   valueOr(in.WinProbability, DefaultWinProbability),
		PlaceProbability: valueOr(in.PlaceProbability, DefaultPlaceProbability),
		ShowProbability:  valueOr(in.ShowProbability, DefaultShowProbability),
		Odds:             valueOr(in.Odds, 0),
		Jockey:           in.Jockey,
		Trainer:          in.Trainer,
		FormRating:       valueOr(in.FormRating, DefaultFormRating),
		SpeedRating:      valueOr(in.SpeedRating, DefaultSpeedRating),
		ClassRating:      valueOr(in.ClassRating, DefaultClassRating),
	}
	if h.Jockey == "" {
		h.Jockey = UnknownConnection
	}
	if h.Trainer == "" {
		h.Trainer = UnknownConnection
	}
	return h
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Float64 returns a pointer to v. Handy for building HorseInput literals.
func Float64(v float64) *float64 {
	return &v
}
