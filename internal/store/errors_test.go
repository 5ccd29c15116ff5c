package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notFound    bool
		conflict    bool
		persistence bool
	}{
		{name: "nil error"},
		{name: "generic error", err: errors.New("some error")},
		{name: "ErrNotFound", err: ErrNotFound, notFound: true},
		{name: "wrapped ErrCardNotFound", err: fmt.Errorf("get card: %w", ErrCardNotFound), notFound: true},
		{name: "ErrTopicNotFound", err: ErrTopicNotFound, notFound: true},
		{name: "ErrDuplicate", err: ErrDuplicate, conflict: true},
		{name: "ErrTopicMissing", err: ErrTopicMissing, conflict: true},
		{name: "ErrTopicCycle", err: ErrTopicCycle, conflict: true},
		{name: "ErrTopicNotEmpty", err: ErrTopicNotEmpty, conflict: true},
		{name: "ErrNonMonotonicReview", err: ErrNonMonotonicReview, conflict: true},
		{name: "ErrTransactionFailed", err: ErrTransactionFailed, persistence: true},
		{
			name:     "StoreError wrapping not found",
			err:      NewStoreError("card", "get", "lookup failed", ErrCardNotFound),
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.conflict, IsConflictError(tt.err))
			assert.Equal(t, tt.persistence, IsPersistenceError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	inner := errors.New("disk full")

	err := NewStoreError("card", "create", "failed to insert card", inner)
	assert.Equal(t, "create operation on card failed: failed to insert card: disk full", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewStoreError("topic", "delete", "not allowed", nil)
	assert.Equal(t, "delete operation on topic failed: not allowed", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
