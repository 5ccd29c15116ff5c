package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu           sync.Mutex
	LastEvent    *Event
	HandlerError error
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestNewEvent(t *testing.T) {
	payload := ReviewCommitted{
		CardID:     uuid.New(),
		TopicID:    uuid.New(),
		Success:    true,
		ReviewedAt: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}

	event, err := NewEvent(TypeReviewCommitted, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeReviewCommitted, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded ReviewCommitted
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)

	_, err = NewEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewEvent(TypeCardDeleted, CardDeleted{CardID: uuid.New()})
		require.NoError(t, err)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent(TypeCardMoved, CardMoved{ToTopicID: uuid.New()})
		require.NoError(t, err)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent(TypeBackupRestored, BackupRestored{Cards: 3})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		var seen []string
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, e *Event) error {
			seen = append(seen, e.Type)
			return nil
		}))

		require.NoError(t, Emit(context.Background(), emitter, TypeReviewCommitted, ReviewCommitted{}))
		require.NoError(t, Emit(context.Background(), emitter, TypeCardDeleted, CardDeleted{}))
		assert.Equal(t, []string{TypeReviewCommitted, TypeCardDeleted}, seen)
	})

	t.Run("emit through nil emitter is a no-op", func(t *testing.T) {
		assert.NoError(t, Emit(context.Background(), nil, TypeCardDeleted, CardDeleted{}))
	})
}
