package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardServiceValidation(t *testing.T) {
	_, err := service.NewCardService(service.CardServiceDeps{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCardServiceCreate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "Geography", nil)

	card, err := e.cardSvc.Create(ctx, topic.ID, "Capital of France", "Paris")
	require.NoError(t, err)

	params := srs.NewDefaultParams()
	assert.Equal(t, t0, card.CreatedAt)
	assert.Equal(t, t0, card.Schedule.DueAt, "new cards are due immediately")
	assert.Equal(t, params.MinIntervalDays, card.Schedule.IntervalDays)
	assert.Equal(t, params.InitialEasiness, card.Schedule.Easiness)
	assert.Zero(t, card.Schedule.ConsecutiveSuccesses)
	assert.False(t, card.Schedule.Reviewed())

	stored, err := e.cardSvc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card, stored)

	_, err = e.cardSvc.Create(ctx, uuid.New(), "q", "a")
	assert.ErrorIs(t, err, store.ErrTopicMissing)

	_, err = e.cardSvc.Create(ctx, topic.ID, "  ", "a")
	assert.ErrorIs(t, err, domain.ErrCardFrontEmpty)

	_, err = e.cardSvc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardServiceUpdate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "T", nil)
	card := e.card(t, topic, "q")

	e.clock.Advance(time.Hour)
	updated, err := e.cardSvc.Update(ctx, card.ID, "new front", "new back")
	require.NoError(t, err)
	assert.Equal(t, "new front", updated.Front)
	assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)
	assert.Equal(t, card.Schedule, updated.Schedule)

	_, err = e.cardSvc.Update(ctx, card.ID, "", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.cardSvc.Update(ctx, uuid.New(), "a", "b")
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardServiceDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "T", nil)
	keep := e.card(t, topic, "keep")
	gone := e.card(t, topic, "gone")

	e.review(t, keep, t0.Add(time.Hour), true)
	e.review(t, gone, t0.Add(time.Hour), false)

	calc := retention.NewCalculator(e.reviews, nil)
	rate, err := calc.TopicRetentionRate(ctx, topic.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 1e-12)

	require.NoError(t, e.cardSvc.Delete(ctx, gone.ID))

	history, err := e.reviews.ListByCard(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "review history is removed with the card")

	rate, err = calc.TopicRetentionRate(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate, "deleted card no longer counts toward the topic")

	due, err := e.due.DueCards(ctx, service.DueQuery{AsOf: t0.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, keep.ID, due[0].ID)

	assert.Equal(t, []string{events.TypeCardDeleted}, e.events.Types())
	assert.ErrorIs(t, e.cardSvc.Delete(ctx, gone.ID), store.ErrCardNotFound)
}

func TestCardServiceMove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	from := e.topic(t, "From", nil)
	to := e.topic(t, "To", nil)
	card := e.card(t, from, "q")

	moved, err := e.cardSvc.Move(ctx, card.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.TopicID)
	assert.Equal(t, card.Schedule, moved.Schedule)

	_, err = e.cardSvc.Move(ctx, card.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTopicMissing)

	_, err = e.cardSvc.Move(ctx, uuid.New(), to.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	assert.Equal(t, []string{events.TypeCardMoved}, e.events.Types())

	require.Len(t, e.events.events, 1)
	var payload events.CardMoved
	require.NoError(t, e.events.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, []uuid.UUID{card.ID}, payload.CardIDs)
	assert.Equal(t, []uuid.UUID{from.ID}, payload.FromTopicIDs)
	assert.Equal(t, to.ID, payload.ToTopicID)
}

func TestCardServiceBulkMove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.topic(t, "A", nil)
	b := e.topic(t, "B", nil)
	target := e.topic(t, "Target", nil)

	c1 := e.card(t, a, "one")
	c2 := e.card(t, b, "two")
	c3 := e.card(t, a, "three")
	e.review(t, c1, t0.Add(time.Hour), true)

	before := map[uuid.UUID]domain.ScheduleState{}
	for _, c := range []*domain.Card{c1, c2, c3} {
		stored, err := e.cards.GetByID(ctx, c.ID)
		require.NoError(t, err)
		before[c.ID] = stored.Schedule
	}

	deleted := e.card(t, b, "deleted")
	require.NoError(t, e.cardSvc.Delete(ctx, deleted.ID))

	ids := []uuid.UUID{c1.ID, deleted.ID, c2.ID, c3.ID}
	result, err := e.cardSvc.BulkMove(ctx, ids, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c1.ID, c2.ID, c3.ID}, result.Moved)
	assert.Equal(t, []uuid.UUID{deleted.ID}, result.Skipped)
	assert.Equal(t, []uuid.UUID{c1.ID, deleted.ID, c2.ID, c3.ID}, ids, "caller's slice is untouched")

	for id, schedule := range before {
		stored, err := e.cards.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, target.ID, stored.TopicID)
		assert.Equal(t, schedule, stored.Schedule, "bulk move leaves schedules unchanged")
	}

	_, err = e.cardSvc.BulkMove(ctx, ids, uuid.New())
	assert.ErrorIs(t, err, store.ErrTopicMissing)

	assert.Equal(t, []string{events.TypeCardDeleted, events.TypeCardMoved}, e.events.Types())
}

func TestCardServiceList(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	lang := e.topic(t, "Languages", nil)
	golang := e.topic(t, "Go", lang)
	music := e.topic(t, "Music", nil)

	chans := e.card(t, golang, "Go channels")
	e.clock.Advance(time.Minute)
	maps := e.card(t, golang, "Go maps")
	e.clock.Advance(time.Minute)
	general := e.card(t, lang, "Type systems")
	e.clock.Advance(time.Minute)
	e.card(t, music, "Circle of fifths")

	e.review(t, chans, t0.Add(time.Hour), true)
	e.review(t, maps, t0.Add(time.Hour), false)
	e.review(t, general, t0.Add(time.Hour), true)
	e.review(t, general, t0.Add(2*time.Hour), false)

	fronts := func(cards []*domain.Card) []string {
		out := make([]string, 0, len(cards))
		for _, c := range cards {
			out = append(out, c.Front)
		}
		return out
	}

	tests := []struct {
		name     string
		opts     service.ListOptions
		expected []string
	}{
		{
			name:     "all newest first",
			opts:     service.ListOptions{},
			expected: []string{"Circle of fifths", "Type systems", "Go maps", "Go channels"},
		},
		{
			name:     "topic only",
			opts:     service.ListOptions{TopicID: &lang.ID, Sort: service.SortOldest},
			expected: []string{"Type systems"},
		},
		{
			name:     "topic with subtopics",
			opts:     service.ListOptions{TopicID: &lang.ID, IncludeSubtopics: true, Sort: service.SortOldest},
			expected: []string{"Go channels", "Go maps", "Type systems"},
		},
		{
			name:     "query",
			opts:     service.ListOptions{Query: "go", Sort: service.SortOldest},
			expected: []string{"Go channels", "Go maps"},
		},
		{
			name:     "retention ascending",
			opts:     service.ListOptions{TopicID: &lang.ID, IncludeSubtopics: true, Sort: service.SortRetentionAsc},
			expected: []string{"Go maps", "Type systems", "Go channels"},
		},
		{
			name:     "retention descending",
			opts:     service.ListOptions{TopicID: &lang.ID, IncludeSubtopics: true, Sort: service.SortRetentionDesc},
			expected: []string{"Go channels", "Type systems", "Go maps"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := e.cardSvc.List(ctx, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, fronts(cards))
		})
	}

	t.Run("unknown sort", func(t *testing.T) {
		_, err := e.cardSvc.List(ctx, service.ListOptions{Sort: "random"})
		assert.ErrorIs(t, err, service.ErrUnknownSortOrder)
	})

	t.Run("missing topic", func(t *testing.T) {
		ghost := uuid.New()
		_, err := e.cardSvc.List(ctx, service.ListOptions{TopicID: &ghost})
		assert.ErrorIs(t, err, store.ErrTopicNotFound)
	})
}
