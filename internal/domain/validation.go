package domain

import (
	"errors"
	"maps"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NewValidationError converts the result of validation.ValidateStruct into a
// *ValidationError naming the first failing field (by json name, sorted).
// nil stays nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, field := range slices.Sorted(maps.Keys(errs)) {
			if errs[field] != nil {
				return &ValidationError{Field: field, Message: errs[field].Error()}
			}
		}
	}
	return &ValidationError{Message: err.Error()}
}
