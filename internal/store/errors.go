package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an operation would violate a store
	// invariant: a reference to a missing topic, a topic cycle, deleting a
	// non-empty topic, or a non-increasing review timestamp.
	ErrConflict = errors.New("conflict")

	// ErrPersistence is returned when the underlying storage fails. The
	// operation may or may not have been applied; callers must not assume
	// success.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = fmt.Errorf("%w: transaction failed", ErrPersistence)

	// Entity-specific "not found" errors

	// ErrTopicNotFound indicates that the requested topic does not exist in the store.
	ErrTopicNotFound = fmt.Errorf("%w: topic", ErrNotFound)

	// ErrCardNotFound indicates that the requested card does not exist in the store.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// Entity-specific "conflict" errors

	// ErrDuplicate is returned when an entity with the same identity already exists.
	ErrDuplicate = fmt.Errorf("%w: entity already exists", ErrConflict)

	// ErrTopicMissing is returned when a card or topic references a topic that does not exist.
	ErrTopicMissing = fmt.Errorf("%w: referenced topic does not exist", ErrConflict)

	// ErrTopicCycle is returned when reparenting a topic would create a cycle.
	ErrTopicCycle = fmt.Errorf("%w: topic hierarchy would contain a cycle", ErrConflict)

	// ErrTopicNotEmpty is returned when deleting a topic that still has cards or subtopics.
	ErrTopicNotEmpty = fmt.Errorf("%w: topic is not empty", ErrConflict)

	// ErrNonMonotonicReview is returned when a review record is not strictly
	// later than the card's previous record.
	ErrNonMonotonicReview = fmt.Errorf("%w: review timestamp is not after the previous review", ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if the error is any kind of invariant conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPersistenceError checks if the error is a storage failure.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "topic", "card")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
