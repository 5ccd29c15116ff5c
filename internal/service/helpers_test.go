package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/platform/sqldb"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock for deterministic timestamps.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordedEvents collects emitted events.
type recordedEvents struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recordedEvents) HandleEvent(_ context.Context, e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

type env struct {
	db      *sqlx.DB
	clock   *testClock
	topics  *sqldb.SQLTopicStore
	cards   *sqldb.SQLCardStore
	reviews *sqldb.SQLReviewStore
	events  *recordedEvents

	topicSvc service.TopicService
	cardSvc  service.CardService
	due      *service.DueIndex
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()

	db, err := sqldb.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqldb.Migrate(ctx, db, sqldb.MigrateUp, log))

	e := &env{
		db:      db,
		clock:   &testClock{now: t0},
		topics:  sqldb.NewSQLTopicStore(db, log),
		cards:   sqldb.NewSQLCardStore(db, log),
		reviews: sqldb.NewSQLReviewStore(db, log),
		events:  &recordedEvents{},
	}

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(e.events)

	e.topicSvc, err = service.NewTopicService(db, e.topics, e.clock.Now, log)
	require.NoError(t, err)

	e.cardSvc, err = service.NewCardService(service.CardServiceDeps{
		DB:        db,
		Topics:    e.topics,
		Cards:     e.cards,
		Reviews:   e.reviews,
		Scheduler: srs.NewDefaultService(),
		Emitter:   emitter,
		Clock:     e.clock.Now,
		Logger:    log,
	})
	require.NoError(t, err)

	e.due, err = service.NewDueIndex(e.topics, e.cards, nil, log)
	require.NoError(t, err)
	return e
}

func (e *env) topic(t *testing.T, name string, parent *domain.Topic) *domain.Topic {
	t.Helper()
	if parent == nil {
		topic, err := e.topicSvc.Create(context.Background(), name, nil)
		require.NoError(t, err)
		return topic
	}
	id := parent.ID
	topic, err := e.topicSvc.Create(context.Background(), name, &id)
	require.NoError(t, err)
	return topic
}

func (e *env) card(t *testing.T, topic *domain.Topic, front string) *domain.Card {
	t.Helper()
	card, err := e.cardSvc.Create(context.Background(), topic.ID, front, "answer to "+front)
	require.NoError(t, err)
	return card
}

// review appends a record directly, bypassing the scheduler.
func (e *env) review(t *testing.T, card *domain.Card, at time.Time, success bool) {
	t.Helper()
	rec, err := domain.NewReviewRecord(card.ID, at, success, 1, 1)
	require.NoError(t, err)
	require.NoError(t, e.reviews.Append(context.Background(), rec))
}
