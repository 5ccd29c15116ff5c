package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Every entity-specific validation error below wraps it.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = fmt.Errorf("%w: content cannot be empty", ErrValidation)
)

// IsValidationError reports whether err is any kind of domain validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
