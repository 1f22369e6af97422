package service

import "errors"

// ErrValidation marks malformed or missing input. It maps to 400.
var ErrValidation = errors.New("validation failed")

// ErrAuth marks unknown principals and credential or answer mismatches. It maps to 401.
var ErrAuth = errors.New("unauthorized")

// ValidationError carries the client-facing message and optional machine-readable details.
type ValidationError struct {
	Message string
	Details []any
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(message string, details ...any) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}
