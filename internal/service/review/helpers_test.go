package review_test

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
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func day(d float64) time.Time {
	return t0.Add(domain.Days(d))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type countingObserver struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (o *countingObserver) ObserveReview(success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if success {
		o.successes++
	} else {
		o.failures++
	}
}

type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (l *eventLog) HandleEvent(_ context.Context, e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
	return nil
}

func (l *eventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.types...)
}

type env struct {
	db       *sqlx.DB
	clock    *testClock
	cards    *sqldb.SQLCardStore
	reviews  *sqldb.SQLReviewStore
	emitter  *events.InMemoryEventEmitter
	events   *eventLog
	observer *countingObserver

	topics  service.TopicService
	cardSvc service.CardService
	due     *service.DueIndex
	calc    retention.Calculator
	review  review.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()

	db, err := sqldb.OpenSQLite(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqldb.Migrate(ctx, db, sqldb.MigrateUp, log))

	e := &env{
		db:       db,
		clock:    &testClock{now: t0},
		cards:    sqldb.NewSQLCardStore(db, log),
		reviews:  sqldb.NewSQLReviewStore(db, log),
		emitter:  events.NewInMemoryEventEmitter(log),
		events:   &eventLog{},
		observer: &countingObserver{},
	}
	e.emitter.RegisterHandler(e.events)
	topicStore := sqldb.NewSQLTopicStore(db, log)

	e.topics, err = service.NewTopicService(db, topicStore, e.clock.Now, log)
	require.NoError(t, err)
	e.cardSvc, err = service.NewCardService(service.CardServiceDeps{
		DB:        db,
		Topics:    topicStore,
		Cards:     e.cards,
		Reviews:   e.reviews,
		Scheduler: srs.NewDefaultService(),
		Emitter:   e.emitter,
		Clock:     e.clock.Now,
		Logger:    log,
	})
	require.NoError(t, err)
	e.due, err = service.NewDueIndex(topicStore, e.cards, nil, log)
	require.NoError(t, err)
	e.calc = retention.NewCalculator(e.reviews, log)

	e.review = review.NewService(db, e.cards, e.reviews, srs.NewDefaultService(), e.emitter, log,
		review.WithClock(e.clock.Now),
		review.WithObserver(e.observer))
	return e
}

func (e *env) topic(t *testing.T, name string) *domain.Topic {
	t.Helper()
	topic, err := e.topics.Create(context.Background(), name, nil)
	require.NoError(t, err)
	return topic
}

func (e *env) card(t *testing.T, topic *domain.Topic, front string) *domain.Card {
	t.Helper()
	card, err := e.cardSvc.Create(context.Background(), topic.ID, front, "back")
	require.NoError(t, err)
	return card
}
