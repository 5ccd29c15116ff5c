package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
)

// Event types emitted by the services.
const (
	TypeReviewCommitted = "review.committed"
	TypeCardMoved       = "card.moved"
	TypeCardDeleted     = "card.deleted"
	TypeBackupRestored  = "backup.restored"
)

// Event is a notification that state changed. It carries a JSON payload so
// handlers do not depend on the emitting package.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        domain.NewID(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReviewCommitted is the payload of TypeReviewCommitted.
type ReviewCommitted struct {
	CardID     uuid.UUID `json:"card_id"`
	TopicID    uuid.UUID `json:"topic_id"`
	Success    bool      `json:"success"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// CardMoved is the payload of TypeCardMoved.
type CardMoved struct {
	CardIDs      []uuid.UUID `json:"card_ids"`
	FromTopicIDs []uuid.UUID `json:"from_topic_ids"`
	ToTopicID    uuid.UUID   `json:"to_topic_id"`
}

// CardDeleted is the payload of TypeCardDeleted.
type CardDeleted struct {
	CardID  uuid.UUID `json:"card_id"`
	TopicID uuid.UUID `json:"topic_id"`
}

// BackupRestored is the payload of TypeBackupRestored.
type BackupRestored struct {
	Topics  int `json:"topics"`
	Cards   int `json:"cards"`
	Reviews int `json:"reviews"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// Emit builds an event from payload and publishes it. A nil emitter is a no-op.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, payload any) error {
	if emitter == nil {
		return nil
	}
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return emitter.EmitEvent(ctx, event)
}
