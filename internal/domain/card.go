package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = fmt.Errorf("%w: card ID cannot be empty", ErrValidation)

	// ErrCardTopicIDEmpty is returned when a card's topic ID is empty or nil.
	ErrCardTopicIDEmpty = fmt.Errorf("%w: card topic ID cannot be empty", ErrValidation)

	// ErrCardFrontEmpty is returned when a card's front side is blank.
	ErrCardFrontEmpty = fmt.Errorf("%w: card front cannot be empty", ErrValidation)

	// ErrCardScheduleInvalid is returned when a card carries an unusable schedule.
	ErrCardScheduleInvalid = fmt.Errorf("%w: card schedule is invalid", ErrValidation)
)

// Card is a front/back flashcard that belongs to exactly one topic and
// carries its own review schedule.
type Card struct {
	ID        uuid.UUID     `json:"id"`
	TopicID   uuid.UUID     `json:"topic_id"`
	Front     string        `json:"front"`
	Back      string        `json:"back"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Schedule  ScheduleState `json:"schedule"`

	// Selected is a transient UI flag. It is never persisted or exported.
	Selected bool `json:"-"`
}

// NewCard creates a new Card in the given topic with the given initial schedule.
// Returns an error if validation fails.
func NewCard(topicID uuid.UUID, front, back string, schedule ScheduleState, now time.Time) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:        NewID(),
		TopicID:   topicID,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
		Schedule:  schedule,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.TopicID == uuid.Nil {
		return ErrCardTopicIDEmpty
	}

	if strings.TrimSpace(c.Front) == "" {
		return ErrCardFrontEmpty
	}

	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCardScheduleInvalid, err)
	}

	return nil
}

// UpdateContent replaces both sides of the card and bumps UpdatedAt.
// The card is left untouched if the new content is invalid.
func (c *Card) UpdateContent(front, back string, now time.Time) error {
	origFront, origBack := c.Front, c.Back
	c.Front, c.Back = front, back

	if err := c.Validate(); err != nil {
		c.Front, c.Back = origFront, origBack
		return err
	}

	c.UpdatedAt = now.UTC()
	return nil
}

// Anchor is the point in time the current interval is measured from:
// the last review, or creation for a card never reviewed.
func (c *Card) Anchor() time.Time {
	if c.Schedule.Reviewed() {
		return c.Schedule.LastReviewedAt
	}
	return c.CreatedAt
}
