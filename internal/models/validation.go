package models

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	inputValidator     *validator.Validate
	inputValidatorOnce sync.Once
)

func getInputValidator() *validator.Validate {
	inputValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		inputValidator = v
	})
	return inputValidator
}

// ValidateHorseInputs checks required fields and ID uniqueness and converts the
// inputs into horses with defaults applied. The first failure is returned as a
// *ValidationError.
func ValidateHorseInputs(inputs []HorseInput) ([]Horse, error) {
	v := getInputValidator()
	seen := make(map[HorseID]struct{}, len(inputs))
	horses := make([]Horse, 0, len(inputs))

	for i, in := range inputs {
		if err := v.Struct(in); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return nil, NewValidationError(i, fe.Field(), "is required", ErrEmptyField)
			}
			return nil, NewValidationError(i, "horse", err.Error(), err)
		}
		if _, dup := seen[in.ID]; dup {
			return nil, NewValidationError(i, "id", "duplicates an earlier horse", ErrDuplicateHorse)
		}
		seen[in.ID] = struct{}{}
		horses = append(horses, in.ToHorse())
	}

	return horses, nil
}

// ValidateHorses applies the same identity checks to already-built horses.
func ValidateHorses(horses []Horse) error {
	seen := make(map[string]struct{}, len(horses))
	for i, h := range horses {
		if strings.TrimSpace(h.ID) == "" {
			return NewValidationError(i, "id", "is required", ErrEmptyField)
		}
		if strings.TrimSpace(h.Name) == "" {
			return NewValidationError(i, "name", "is required", ErrEmptyField)
		}
		if _, dup := seen[h.ID]; dup {
			return NewValidationError(i, "id", "duplicates an earlier horse", ErrDuplicateHorse)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}
