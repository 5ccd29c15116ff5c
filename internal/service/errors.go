package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/lazycard/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Store sentinels (ErrNotFound, ErrConflict, ErrPersistence) pass through unchanged in the chain
// 2. Unexpected errors are wrapped in ServiceError with the failing operation
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrUnknownSortOrder is returned when a card listing names an unsupported order.
	// API layer should map this to HTTP 400 Bad Request.
	ErrUnknownSortOrder = fmt.Errorf("%w: unknown sort order", domain.ErrValidation)

	// ErrEmptyTopicPath is returned when a topic path has no segments.
	ErrEmptyTopicPath = fmt.Errorf("%w: topic path cannot be empty", domain.ErrValidation)
)

// ServiceError is a custom error type for service errors.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsServiceError reports whether err carries a ServiceError.
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}
