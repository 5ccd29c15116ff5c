package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/search"
	"github.com/phrazzld/lazycard/internal/store"
)

// DueQuery selects due cards.
type DueQuery struct {
	// TopicID restricts results to one topic when set.
	TopicID *uuid.UUID

	// IncludeSubtopics widens TopicID to its whole subtree.
	IncludeSubtopics bool

	// AsOf is the cutoff; cards with due_at <= AsOf are due.
	AsOf time.Time
}

// DueIndex answers which cards are due. Every call reads through to the
// store, so results reflect the latest committed reviews and moves. It never
// modifies cards.
type DueIndex struct {
	topics  store.TopicStore
	cards   store.CardStore
	matcher search.Matcher
	logger  *slog.Logger
}

// NewDueIndex creates a DueIndex.
func NewDueIndex(topics store.TopicStore, cards store.CardStore, matcher search.Matcher, logger *slog.Logger) (*DueIndex, error) {
	if topics == nil || cards == nil {
		return nil, fmt.Errorf("%w: stores cannot be nil", domain.ErrValidation)
	}
	if matcher == nil {
		matcher = search.NewTokenMatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DueIndex{
		topics:  topics,
		cards:   cards,
		matcher: matcher,
		logger:  logger.With(slog.String("component", "due_index")),
	}, nil
}

// DueCards returns cards due as of q.AsOf ordered by due date, then ID.
// No due cards yields an empty slice.
func (d *DueIndex) DueCards(ctx context.Context, q DueQuery) ([]*domain.Card, error) {
	filter, err := topicFilter(ctx, d.topics, q.TopicID, q.IncludeSubtopics)
	if err != nil {
		return nil, NewServiceError("due_index", "due_cards", "failed to resolve topic", err)
	}

	cards, err := d.cards.ListDue(ctx, filter, q.AsOf)
	if err != nil {
		return nil, NewServiceError("due_index", "due_cards", "failed to list due cards", err)
	}
	return cards, nil
}

// CountDue counts the cards DueCards would return.
func (d *DueIndex) CountDue(ctx context.Context, q DueQuery) (int, error) {
	filter, err := topicFilter(ctx, d.topics, q.TopicID, q.IncludeSubtopics)
	if err != nil {
		return 0, NewServiceError("due_index", "count_due", "failed to resolve topic", err)
	}

	count, err := d.cards.CountDue(ctx, filter, q.AsOf)
	if err != nil {
		return 0, NewServiceError("due_index", "count_due", "failed to count due cards", err)
	}
	return count, nil
}

// DueMatching returns the due cards that match a search query, keeping due order.
func (d *DueIndex) DueMatching(ctx context.Context, query string, q DueQuery) ([]*domain.Card, error) {
	cards, err := d.DueCards(ctx, q)
	if err != nil {
		return nil, err
	}
	return d.matcher.Match(query, cards), nil
}
