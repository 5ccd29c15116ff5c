package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/store"
)

// Outcome is the result of a committed review.
type Outcome struct {
	// Card carries the schedule as committed.
	Card *domain.Card `json:"card"`

	// Record is the appended review record.
	Record *domain.ReviewRecord `json:"record"`

	// Violations lists repairs made to a corrupt stored schedule before
	// the review was applied. Empty for healthy cards.
	Violations []srs.Violation `json:"violations,omitempty"`
}

// Service commits review outcomes.
type Service interface {
	// Submit applies a pass or fail to a card: it computes the next schedule
	// and atomically appends one review record and updates the card.
	// Once persisting has started the commit is not cancelled by ctx.
	Submit(ctx context.Context, cardID uuid.UUID, success bool) (*Outcome, error)
}

// Observer receives a callback for every committed review.
type Observer interface {
	ObserveReview(success bool, elapsed time.Duration)
}

// Option configures the review service.
type Option func(*serviceImpl)

// WithClock sets the clock used to timestamp reviews.
func WithClock(clock domain.Clock) Option {
	return func(s *serviceImpl) { s.now = clock }
}

// WithObserver registers an observer for committed reviews.
func WithObserver(o Observer) Option {
	return func(s *serviceImpl) { s.observer = o }
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db        *sqlx.DB
	cards     store.CardStore
	reviews   store.ReviewStore
	scheduler srs.Service
	emitter   events.EventEmitter
	observer  Observer
	locks     *keyedMutex
	now       domain.Clock
	logger    *slog.Logger
}

// NewService creates a review Service.
func NewService(
	db *sqlx.DB,
	cards store.CardStore,
	reviews store.ReviewStore,
	scheduler srs.Service,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		db:        db,
		cards:     cards,
		reviews:   reviews,
		scheduler: scheduler,
		emitter:   emitter,
		locks:     newKeyedMutex(),
		now:       domain.SystemClock,
		logger:    logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit implements Service.
func (s *serviceImpl) Submit(ctx context.Context, cardID uuid.UUID, success bool) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("card_id", cardID.String()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cardID)
	defer unlock()

	started := time.Now()
	commitCtx := context.WithoutCancel(ctx)

	var outcome *Outcome
	err := store.RunInTransaction(commitCtx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)
		reviews := s.reviews.WithTx(tx)

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}

		state, violations := s.scheduler.Normalize(card.Schedule, card.Anchor())
		if len(violations) > 0 {
			log.Warn("repairing corrupt schedule state before review",
				slog.Any("violations", violationStrings(violations)))
		}

		now := s.now().UTC()
		latest, reviewed, err := reviews.LatestTimestamp(ctx, cardID)
		if err != nil {
			return err
		}
		if reviewed && !now.After(latest) {
			log.Warn("clock is not after the previous review, bumping timestamp",
				slog.Time("now", now),
				slog.Time("latest", latest))
			now = latest.Add(time.Millisecond)
		}

		next := s.scheduler.NextState(state, success, now)
		record, err := domain.NewReviewRecord(cardID, now, success, state.IntervalDays, next.IntervalDays)
		if err != nil {
			return err
		}

		if err := store.CommitReview(ctx, cards, reviews, next, record); err != nil {
			return err
		}

		card.Schedule = next
		outcome = &Outcome{Card: card, Record: record, Violations: violations}
		return nil
	})
	if err != nil {
		log.Error("failed to commit review", slog.String("error", err.Error()))
		return nil, service.NewServiceError("review", "submit", "failed to commit review", err)
	}

	elapsed := time.Since(started)
	if s.observer != nil {
		s.observer.ObserveReview(success, elapsed)
	}

	log.Info("review committed",
		slog.Bool("success", success),
		slog.Float64("interval_days", outcome.Card.Schedule.IntervalDays),
		slog.Time("due_at", outcome.Card.Schedule.DueAt),
		slog.Duration("elapsed", elapsed))

	if err := events.Emit(commitCtx, s.emitter, events.TypeReviewCommitted, events.ReviewCommitted{
		CardID:     cardID,
		TopicID:    outcome.Card.TopicID,
		Success:    success,
		ReviewedAt: outcome.Record.Timestamp,
	}); err != nil {
		log.Warn("failed to emit review event", slog.String("error", err.Error()))
	}

	return outcome, nil
}

func violationStrings(vs []srs.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}
