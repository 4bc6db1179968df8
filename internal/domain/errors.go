package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or request fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when no valid session accompanies a request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a session lacks the role an operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrLastAdmin is returned when a change would leave no active admin.
	ErrLastAdmin = errors.New("cannot remove the last active admin")
)

// ValidationError describes which field failed validation and why.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
