package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidBetType = errors.New("invalid bet type")
	ErrEmptyField     = errors.New("field is required")
	ErrDuplicateHorse = errors.New("duplicate horse id")
	ErrInvalidID      = errors.New("invalid ID format")
)

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
	Index  int
	Err    error
}

// NewValidationError builds a ValidationError for the horse at index (-1 when the
// failure is not tied to a particular horse).
func NewValidationError(index int, field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Index: index, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation failed for horse %d: field '%s' %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: field '%s' %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
