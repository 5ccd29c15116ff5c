package review_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/phrazzld/lazycard/internal/store"
	"github.com/phrazzld/lazycard/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitScenario(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "Geography")
	card := e.card(t, topic, "Capital of France")

	// Day 0: the new card is due immediately.
	due, err := e.due.DueCards(ctx, service.DueQuery{AsOf: t0})
	require.NoError(t, err)
	require.Len(t, due, 1)

	// Day 1: success.
	e.clock.Set(day(1))
	outcome, err := e.review.Submit(ctx, card.ID, true)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, outcome.Card.Schedule.Easiness, 1e-9)
	assert.InDelta(t, 2.5, outcome.Card.Schedule.IntervalDays, 1e-9)
	assert.Equal(t, 1, outcome.Card.Schedule.ConsecutiveSuccesses)
	assert.Equal(t, day(3.5), outcome.Card.Schedule.DueAt)
	assert.Equal(t, day(1), outcome.Card.Schedule.LastReviewedAt)
	assert.Empty(t, outcome.Violations)

	due, err = e.due.DueCards(ctx, service.DueQuery{AsOf: day(3)})
	require.NoError(t, err)
	assert.Empty(t, due, "not due before day 3.5")

	// Day 3.5: failure.
	e.clock.Set(day(3.5))
	outcome, err = e.review.Submit(ctx, card.ID, false)
	require.NoError(t, err)
	assert.InDelta(t, 2.3, outcome.Card.Schedule.Easiness, 1e-9)
	assert.InDelta(t, 1.0, outcome.Card.Schedule.IntervalDays, 1e-9)
	assert.Zero(t, outcome.Card.Schedule.ConsecutiveSuccesses)
	assert.Equal(t, day(4.5), outcome.Card.Schedule.DueAt)

	stored, err := e.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, outcome.Card.Schedule, stored.Schedule)

	history, err := e.reviews.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Success)
	assert.InDelta(t, 1.0, history[0].IntervalBefore, 1e-9)
	assert.InDelta(t, 2.5, history[0].IntervalAfter, 1e-9)
	assert.False(t, history[1].Success)
	assert.InDelta(t, 2.5, history[1].IntervalBefore, 1e-9)
	assert.InDelta(t, 1.0, history[1].IntervalAfter, 1e-9)

	rate, err := e.calc.RetentionRate(ctx, card.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 1e-12)

	assert.Equal(t, []string{events.TypeReviewCommitted, events.TypeReviewCommitted}, e.events.Types())
	assert.Equal(t, 1, e.observer.successes)
	assert.Equal(t, 1, e.observer.failures)
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown card", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.review.Submit(ctx, uuid.New(), true)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.True(t, service.IsServiceError(err))
		assert.Empty(t, e.events.Types())
	})

	t.Run("cancelled before start", func(t *testing.T) {
		e := newEnv(t)
		card := e.card(t, e.topic(t, "T"), "q")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.review.Submit(cancelled, card.ID, true)
		assert.ErrorIs(t, err, context.Canceled)

		history, err := e.reviews.ListByCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("nil dependencies panic", func(t *testing.T) {
		e := newEnv(t)
		assert.Panics(t, func() {
			review.NewService(nil, e.cards, e.reviews, srs.NewDefaultService(), nil, logger.Discard())
		})
		assert.Panics(t, func() {
			review.NewService(e.db, e.cards, e.reviews, nil, nil, logger.Discard())
		})
	})
}

func TestSubmitKeepsTimestampsMonotonic(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	card := e.card(t, e.topic(t, "T"), "q")

	e.clock.Set(day(1))
	first, err := e.review.Submit(ctx, card.ID, true)
	require.NoError(t, err)

	// The clock does not move, or even goes backwards.
	second, err := e.review.Submit(ctx, card.ID, true)
	require.NoError(t, err)
	e.clock.Set(day(0.5))
	third, err := e.review.Submit(ctx, card.ID, false)
	require.NoError(t, err)

	assert.True(t, second.Record.Timestamp.After(first.Record.Timestamp))
	assert.True(t, third.Record.Timestamp.After(second.Record.Timestamp))
	assert.Equal(t, first.Record.Timestamp.Add(time.Millisecond), second.Record.Timestamp)
}

func TestSubmitRepairsCorruptState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	card := e.card(t, e.topic(t, "T"), "q")

	_, err := e.db.ExecContext(ctx,
		`UPDATE cards SET easiness = 0.5, interval_days = 99999, consecutive_successes = -3 WHERE id = ?`,
		card.ID.String())
	require.NoError(t, err)

	e.clock.Set(day(1))
	outcome, err := e.review.Submit(ctx, card.ID, true)
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Violations)

	params := srs.NewDefaultParams()
	schedule := outcome.Card.Schedule
	assert.GreaterOrEqual(t, schedule.Easiness, params.MinEasiness)
	assert.LessOrEqual(t, schedule.IntervalDays, params.MaxIntervalDays)
	assert.GreaterOrEqual(t, schedule.IntervalDays, params.MinIntervalDays)
	assert.Equal(t, 1, schedule.ConsecutiveSuccesses)
	assert.Equal(t, day(1).Add(domain.Days(schedule.IntervalDays)), schedule.DueAt)
}

func TestConcurrentSubmitsSerializePerCard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "T")
	a := e.card(t, topic, "a")
	b := e.card(t, topic, "b")
	e.clock.Set(day(1))

	const perCard = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perCard)
	for i := 0; i < perCard; i++ {
		for _, id := range []uuid.UUID{a.ID, b.ID} {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := e.review.Submit(ctx, id, true)
				errs <- err
			}(id)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		stored, err := e.cards.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, perCard, stored.Schedule.ConsecutiveSuccesses, "every submission saw the previous one")

		history, err := e.reviews.ListByCard(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, perCard)
		for i := 1; i < len(history); i++ {
			assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
			assert.Equal(t, history[i-1].IntervalAfter, history[i].IntervalBefore)
		}
	}
}

func TestQueuedService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	card := e.card(t, e.topic(t, "T"), "q")
	e.clock.Set(day(1))

	dispatcher := task.NewDispatcher(task.DispatcherConfig{Workers: 2, QueueSize: 16}, logger.Discard())
	dispatcher.Start()
	defer dispatcher.Stop()

	queued := review.NewQueuedService(e.review, dispatcher)

	outcome, err := queued.Submit(ctx, card.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Card.Schedule.ConsecutiveSuccesses)

	var futures []*task.Future
	for i := 0; i < 5; i++ {
		f, err := queued.SubmitAsync(ctx, card.ID, i%2 == 0, nil)
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for _, f := range futures {
		require.NoError(t, f.Wait(ctx))
	}

	history, err := e.reviews.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, history, 6)
	outcomes := []bool{true, true, false, true, false, true}
	for i, rec := range history {
		assert.Equal(t, outcomes[i], rec.Success, "submissions apply in arrival order")
	}

	_, err = queued.Submit(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}
