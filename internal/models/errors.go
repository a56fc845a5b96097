package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a create collides with an existing id.
	ErrConflict = errors.New("conflict")

	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
