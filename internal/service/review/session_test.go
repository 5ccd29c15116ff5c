package review_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/phrazzld/lazycard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(cards []*domain.Card) []uuid.UUID {
	out := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func (e *env) manager(opts ...review.ManagerOption) *review.Manager {
	opts = append([]review.ManagerOption{review.WithSessionClock(e.clock.Now)}, opts...)
	m := review.NewManager(e.due, e.review, e.calc, logger.Discard(), opts...)
	e.emitter.RegisterHandler(m)
	return m
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "T")
	for _, front := range []string{"a", "b", "c"} {
		e.card(t, topic, front)
	}
	e.clock.Set(day(1))

	due, err := e.due.DueCards(ctx, service.DueQuery{AsOf: day(1)})
	require.NoError(t, err)
	m := e.manager(review.WithShuffle(false))

	session, err := m.Start(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, ids(due), ids(session.Cards()), "unshuffled sessions follow due order")
	assert.Equal(t, day(1), session.StartedAt())
	assert.Equal(t, review.Progress{Total: 3, Remaining: 3}, session.Progress())

	first, ok := session.Next()
	require.True(t, ok)
	assert.Equal(t, due[0].ID, first.ID)

	require.NoError(t, session.Skip(first.ID))
	next, _ := session.Next()
	assert.Equal(t, due[1].ID, next.ID)
	assert.Equal(t, first.ID, session.Cards()[2].ID, "skipped card goes to the back")

	outcome, err := session.Submit(ctx, next.ID, true)
	require.NoError(t, err)
	assert.Equal(t, next.ID, outcome.Card.ID)
	assert.Equal(t, review.Progress{Reviewed: 1, Successes: 1, Total: 3, Remaining: 2}, session.Progress())

	_, err = session.Submit(ctx, next.ID, true)
	assert.ErrorIs(t, err, review.ErrCardNotInSession)
	assert.True(t, store.IsNotFoundError(err))
	assert.ErrorIs(t, session.Skip(uuid.New()), review.ErrCardNotInSession)

	rate, err := session.RetentionRate(ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	// Mutating a returned copy does not leak into the session.
	peek, _ := session.Next()
	peek.Front = "changed"
	again, _ := session.Next()
	assert.NotEqual(t, "changed", again.Front)

	for _, card := range session.Cards() {
		_, err := session.Submit(ctx, card.ID, false)
		require.NoError(t, err)
	}
	assert.True(t, session.Done())
	_, ok = session.Next()
	assert.False(t, ok)
	assert.Equal(t, review.Progress{Reviewed: 3, Successes: 1, Total: 3, Remaining: 0}, session.Progress())

	got, err := m.Get(session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
	require.NoError(t, m.End(session.ID()))
	_, err = m.Get(session.ID())
	assert.ErrorIs(t, err, review.ErrSessionNotFound)
	assert.ErrorIs(t, m.End(session.ID()), review.ErrSessionNotFound)
}

func TestSessionSubmitFailureKeepsCard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	card := e.card(t, e.topic(t, "T"), "a")
	m := e.manager(review.WithShuffle(false))

	session, err := m.Start(ctx, nil, false)
	require.NoError(t, err)

	// Delete the card behind the session's back, without emitting events.
	_, err = e.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, card.ID.String())
	require.NoError(t, err)

	_, err = session.Submit(ctx, card.ID, true)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.Equal(t, 1, session.Progress().Remaining)
	assert.True(t, session.Remove(card.ID))
	assert.False(t, session.Remove(card.ID))
	assert.True(t, session.Done())
}

// gatedService holds every submission until the gate is closed.
type gatedService struct {
	next review.Service
	gate chan struct{}
}

func (g *gatedService) Submit(ctx context.Context, cardID uuid.UUID, success bool) (*review.Outcome, error) {
	<-g.gate
	return g.next.Submit(ctx, cardID, success)
}

func TestSessionSubmitOutlivesCallerContext(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	card := e.card(t, e.topic(t, "T"), "a")

	gated := &gatedService{next: e.review, gate: make(chan struct{})}
	m := review.NewManager(e.due, gated, e.calc, logger.Discard(),
		review.WithShuffle(false), review.WithSessionClock(e.clock.Now))
	session, err := m.Start(ctx, nil, false)
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = session.Submit(timeoutCtx, card.ID, true)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = session.Submit(ctx, card.ID, true)
	assert.ErrorIs(t, err, review.ErrSubmissionInProgress, "card stays locked while its commit is pending")

	close(gated.gate)
	require.Eventually(t, session.Done, time.Second, 5*time.Millisecond)

	assert.Equal(t, review.Progress{Reviewed: 1, Successes: 1, Total: 1, Remaining: 0}, session.Progress())
	records, err := e.reviews.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = session.Submit(ctx, card.ID, true)
	assert.ErrorIs(t, err, review.ErrCardNotInSession)
}

func TestManagerShuffle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	topic := e.topic(t, "T")
	for _, front := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		e.card(t, topic, front)
	}

	due, err := e.due.DueCards(ctx, service.DueQuery{AsOf: t0})
	require.NoError(t, err)

	start := func(seed uint64) []uuid.UUID {
		m := e.manager(review.WithRand(rand.New(rand.NewPCG(seed, seed))))
		session, err := m.Start(ctx, nil, false)
		require.NoError(t, err)
		return ids(session.Cards())
	}

	first := start(42)
	assert.Equal(t, first, start(42), "same seed, same order")
	assert.ElementsMatch(t, ids(due), first)

	after, err := e.due.DueCards(ctx, service.DueQuery{AsOf: t0})
	require.NoError(t, err)
	assert.Equal(t, ids(due), ids(after), "shuffling leaves the due order alone")
}

func TestManagerScopesAndEvents(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := e.topic(t, "Root")
	child, err := e.topics.Create(ctx, "Child", &root.ID)
	require.NoError(t, err)
	inRoot := e.card(t, root, "root card")
	inChild := e.card(t, child, "child card")

	m := e.manager(review.WithShuffle(false))

	direct, err := m.Start(ctx, &root.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{inRoot.ID}, ids(direct.Cards()))

	nested, err := m.Start(ctx, &root.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{inRoot.ID, inChild.ID}, ids(nested.Cards()))

	missing := uuid.New()
	_, err = m.Start(ctx, &missing, false)
	assert.ErrorIs(t, err, store.ErrTopicNotFound)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, e.cardSvc.Delete(ctx, inRoot.ID))
	assert.Empty(t, direct.Cards(), "deleted cards leave open sessions")
	assert.Equal(t, []uuid.UUID{inChild.ID}, ids(nested.Cards()))

	require.NoError(t, events.Emit(ctx, e.emitter, events.TypeBackupRestored, events.BackupRestored{}))
	assert.Zero(t, m.Len())
	_, err = m.Get(nested.ID())
	assert.ErrorIs(t, err, review.ErrSessionNotFound)
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.card(t, e.topic(t, "T"), "a")
	m := e.manager(review.WithShuffle(false), review.WithSessionTTL(time.Hour))

	active, err := m.Start(ctx, nil, false)
	require.NoError(t, err)
	abandoned, err := m.Start(ctx, nil, false)
	require.NoError(t, err)

	e.clock.Set(t0.Add(45 * time.Minute))
	_, err = m.Get(active.ID())
	require.NoError(t, err, "lookups keep a session alive")

	e.clock.Set(t0.Add(90 * time.Minute))
	_, err = m.Get(abandoned.ID())
	assert.ErrorIs(t, err, review.ErrSessionNotFound)
	_, err = m.Get(active.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	e.clock.Set(t0.Add(4 * time.Hour))
	_, err = m.Start(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len(), "starting a session drops idle ones")
	assert.Zero(t, m.Prune())
}
