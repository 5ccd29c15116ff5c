package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTopicNameLength bounds topic names, in runes.
const MaxTopicNameLength = 200

// Topic-specific validation errors
var (
	// ErrTopicIDEmpty is returned when a topic ID is empty or nil.
	ErrTopicIDEmpty = fmt.Errorf("%w: topic ID cannot be empty", ErrValidation)

	// ErrTopicNameEmpty is returned when a topic name is blank.
	ErrTopicNameEmpty = fmt.Errorf("%w: topic name cannot be empty", ErrValidation)

	// ErrTopicNameTooLong is returned when a topic name exceeds MaxTopicNameLength.
	ErrTopicNameTooLong = fmt.Errorf("%w: topic name is too long", ErrValidation)

	// ErrTopicSelfParent is returned when a topic names itself as parent.
	ErrTopicSelfParent = fmt.Errorf("%w: topic cannot be its own parent", ErrValidation)
)

// Topic is a named grouping of cards. Topics form a forest through the
// optional ParentID.
type Topic struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTopic creates a validated Topic. The name is trimmed.
func NewTopic(name string, parentID *uuid.UUID, now time.Time) (*Topic, error) {
	topic := &Topic{
		ID:        NewID(),
		Name:      strings.TrimSpace(name),
		ParentID:  parentID,
		CreatedAt: now.UTC(),
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTopicIDEmpty
	}

	if strings.TrimSpace(t.Name) == "" {
		return ErrTopicNameEmpty
	}

	if utf8.RuneCountInString(t.Name) > MaxTopicNameLength {
		return ErrTopicNameTooLong
	}

	if t.ParentID != nil && *t.ParentID == t.ID {
		return ErrTopicSelfParent
	}

	return nil
}

// IsRoot reports whether the topic has no parent.
func (t *Topic) IsRoot() bool {
	return t.ParentID == nil
}
