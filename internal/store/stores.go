package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
)

// TopicStore defines the interface for topic persistence.
type TopicStore interface {
	// Create saves a new topic. Returns ErrTopicMissing if the parent does
	// not exist and ErrDuplicate if the ID is already taken.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID retrieves a topic by its ID.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// List returns every topic ordered by name, then ID.
	List(ctx context.Context) ([]*domain.Topic, error)

	// Descendants returns the IDs of the topic and all of its subtopics.
	// The returned slice is empty if the topic does not exist.
	Descendants(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)

	// Update changes a topic's name and parent.
	// Returns ErrTopicNotFound if the topic does not exist.
	Update(ctx context.Context, topic *domain.Topic) error

	// Delete removes a topic. Returns ErrTopicNotFound if it does not exist
	// and ErrTopicNotEmpty if it still has cards or subtopics.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAll removes every topic. Cards must be deleted first.
	DeleteAll(ctx context.Context) error

	// WithTx returns a TopicStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) TopicStore
}

// CardFilter narrows card listings. Zero values mean "no restriction".
type CardFilter struct {
	// TopicIDs restricts results to cards in any of the listed topics.
	TopicIDs []uuid.UUID
}

// CardStore defines the interface for card persistence. The Selected flag of
// a card is never stored.
type CardStore interface {
	// Create saves a new card. Returns ErrTopicMissing if its topic does not exist.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its ID, with its schedule as stored.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Update overwrites front, back and updated_at.
	// Returns ErrCardNotFound if the card does not exist.
	Update(ctx context.Context, card *domain.Card) error

	// UpdateSchedule replaces the card's schedule.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateSchedule(ctx context.Context, id uuid.UUID, schedule domain.ScheduleState) error

	// UpdateTopic moves a card to another topic. Nothing else is changed.
	// Returns ErrCardNotFound if the card does not exist and ErrTopicMissing
	// if the target topic does not exist.
	UpdateTopic(ctx context.Context, id, topicID uuid.UUID, updatedAt time.Time) error

	// Delete removes a card. Returns ErrCardNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAll removes every card.
	DeleteAll(ctx context.Context) error

	// List returns cards matching the filter ordered by ID.
	List(ctx context.Context, filter CardFilter) ([]*domain.Card, error)

	// ListDue returns cards matching the filter with due_at <= asOf ordered
	// by due_at ascending, then ID ascending.
	ListDue(ctx context.Context, filter CardFilter, asOf time.Time) ([]*domain.Card, error)

	// CountDue counts the cards ListDue would return.
	CountDue(ctx context.Context, filter CardFilter, asOf time.Time) (int, error)

	// WithTx returns a CardStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) CardStore
}

// ReviewCounts summarizes a card's review history.
type ReviewCounts struct {
	CardID    uuid.UUID `db:"card_id"`
	Total     int       `db:"total"`
	Successes int       `db:"successes"`
}

// ReviewStore defines the interface for the append-only review history.
type ReviewStore interface {
	// Append adds a record. Returns ErrNonMonotonicReview if the timestamp
	// is not strictly after the card's latest record.
	Append(ctx context.Context, record *domain.ReviewRecord) error

	// ListByCard returns a card's records in timestamp order.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewRecord, error)

	// ListAll returns every record, ordered by card then timestamp.
	ListAll(ctx context.Context) ([]*domain.ReviewRecord, error)

	// Counts returns review totals for one card. A card without reviews
	// yields zero counts.
	Counts(ctx context.Context, cardID uuid.UUID) (ReviewCounts, error)

	// CountsByTopics returns review totals for every reviewed card in the
	// given topics. Cards without reviews are omitted.
	CountsByTopics(ctx context.Context, topicIDs []uuid.UUID) ([]ReviewCounts, error)

	// LatestTimestamp returns the time of the card's most recent record and
	// false if it has none.
	LatestTimestamp(ctx context.Context, cardID uuid.UUID) (time.Time, bool, error)

	// DeleteByCard removes a card's entire history.
	DeleteByCard(ctx context.Context, cardID uuid.UUID) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// WithTx returns a ReviewStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) ReviewStore
}
