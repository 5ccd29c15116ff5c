package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/search"
	"github.com/phrazzld/lazycard/internal/store"
)

// ListOptions selects and orders cards for CardService.List.
type ListOptions struct {
	TopicID          *uuid.UUID
	IncludeSubtopics bool
	Query            string
	Sort             SortOrder
}

// BulkMoveResult reports which cards a bulk move touched.
type BulkMoveResult struct {
	Moved   []uuid.UUID `json:"moved"`
	Skipped []uuid.UUID `json:"skipped"`
}

// CardService provides card-related operations
type CardService interface {
	// Create adds a card to a topic with the initial schedule.
	// Returns store.ErrTopicMissing if the topic does not exist.
	Create(ctx context.Context, topicID uuid.UUID, front, back string) (*domain.Card, error)

	// Get retrieves a card by its ID
	Get(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Update replaces a card's front and back. The schedule is untouched.
	Update(ctx context.Context, id uuid.UUID, front, back string) (*domain.Card, error)

	// Delete removes a card together with its review history.
	Delete(ctx context.Context, id uuid.UUID) error

	// Move reassigns a card to another topic without touching its schedule.
	Move(ctx context.Context, id, topicID uuid.UUID) (*domain.Card, error)

	// BulkMove moves every listed card that still exists to topicID in one
	// transaction. IDs that no longer exist are skipped.
	BulkMove(ctx context.Context, ids []uuid.UUID, topicID uuid.UUID) (*BulkMoveResult, error)

	// List returns cards filtered by topic and query in the requested order.
	List(ctx context.Context, opts ListOptions) ([]*domain.Card, error)
}

type cardServiceImpl struct {
	db        *sqlx.DB
	topics    store.TopicStore
	cards     store.CardStore
	reviews   store.ReviewStore
	scheduler srs.Service
	matcher   search.Matcher
	retention retention.Calculator
	emitter   events.EventEmitter
	now       domain.Clock
	logger    *slog.Logger
}

// CardServiceDeps bundles the collaborators of a CardService.
type CardServiceDeps struct {
	DB        *sqlx.DB
	Topics    store.TopicStore
	Cards     store.CardStore
	Reviews   store.ReviewStore
	Scheduler srs.Service
	Matcher   search.Matcher
	Retention retention.Calculator
	Emitter   events.EventEmitter
	Clock     domain.Clock
	Logger    *slog.Logger
}

// NewCardService creates a new CardService
// It returns an error if any of the required dependencies are nil.
func NewCardService(deps CardServiceDeps) (CardService, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("%w: db cannot be nil", domain.ErrValidation)
	}
	if deps.Topics == nil || deps.Cards == nil || deps.Reviews == nil {
		return nil, fmt.Errorf("%w: stores cannot be nil", domain.ErrValidation)
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler cannot be nil", domain.ErrValidation)
	}
	if deps.Matcher == nil {
		deps.Matcher = search.NewTokenMatcher()
	}
	if deps.Retention == nil {
		deps.Retention = retention.NewCalculator(deps.Reviews, deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &cardServiceImpl{
		db:        deps.DB,
		topics:    deps.Topics,
		cards:     deps.Cards,
		reviews:   deps.Reviews,
		scheduler: deps.Scheduler,
		matcher:   deps.Matcher,
		retention: deps.Retention,
		emitter:   deps.Emitter,
		now:       deps.Clock,
		logger:    deps.Logger.With(slog.String("component", "card_service")),
	}, nil
}

func (s *cardServiceImpl) Create(ctx context.Context, topicID uuid.UUID, front, back string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now()
	card, err := domain.NewCard(topicID, front, back, s.scheduler.InitialState(now), now)
	if err != nil {
		return nil, err
	}

	if err := s.cards.Create(ctx, card); err != nil {
		log.Debug("failed to create card",
			slog.String("topic_id", topicID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("card", "create", "failed to save card", err)
	}

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("topic_id", topicID.String()))
	return card, nil
}

func (s *cardServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("card", "get", "failed to load card", err)
	}
	return card, nil
}

func (s *cardServiceImpl) Update(ctx context.Context, id uuid.UUID, front, back string) (*domain.Card, error) {
	var updated *domain.Card
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := card.UpdateContent(front, back, s.now()); err != nil {
			return err
		}
		if err := cards.Update(ctx, card); err != nil {
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, NewServiceError("card", "update", "failed to update card", err)
	}
	return updated, nil
}

func (s *cardServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var topicID uuid.UUID
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByID(ctx, id)
		if err != nil {
			return err
		}
		topicID = card.TopicID

		if err := s.reviews.WithTx(tx).DeleteByCard(ctx, id); err != nil {
			return err
		}
		return cards.Delete(ctx, id)
	})
	if err != nil {
		return NewServiceError("card", "delete", "failed to delete card", err)
	}

	log.Info("card deleted", slog.String("card_id", id.String()))
	s.emit(ctx, events.TypeCardDeleted, events.CardDeleted{CardID: id, TopicID: topicID})
	return nil
}

func (s *cardServiceImpl) Move(ctx context.Context, id, topicID uuid.UUID) (*domain.Card, error) {
	var moved *domain.Card
	var from uuid.UUID
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = card.TopicID

		now := s.now()
		if err := cards.UpdateTopic(ctx, id, topicID, now); err != nil {
			return err
		}
		card.TopicID = topicID
		card.UpdatedAt = now
		moved = card
		return nil
	})
	if err != nil {
		return nil, NewServiceError("card", "move", "failed to move card", err)
	}

	s.emit(ctx, events.TypeCardMoved, events.CardMoved{
		CardIDs:      []uuid.UUID{id},
		FromTopicIDs: []uuid.UUID{from},
		ToTopicID:    topicID,
	})
	return moved, nil
}

func (s *cardServiceImpl) BulkMove(ctx context.Context, ids []uuid.UUID, topicID uuid.UUID) (*BulkMoveResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	snapshot := append([]uuid.UUID(nil), ids...)
	result := &BulkMoveResult{Moved: []uuid.UUID{}, Skipped: []uuid.UUID{}}
	fromTopics := make(map[uuid.UUID]struct{})

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		if _, err := s.topics.WithTx(tx).GetByID(ctx, topicID); err != nil {
			if store.IsNotFoundError(err) {
				return store.ErrTopicMissing
			}
			return err
		}

		now := s.now()
		for _, id := range snapshot {
			card, err := cards.GetByID(ctx, id)
			if store.IsNotFoundError(err) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if err != nil {
				return err
			}
			if err := cards.UpdateTopic(ctx, id, topicID, now); err != nil {
				return err
			}
			fromTopics[card.TopicID] = struct{}{}
			result.Moved = append(result.Moved, id)
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("card", "bulk_move", "failed to move cards", err)
	}

	log.Info("cards moved",
		slog.String("topic_id", topicID.String()),
		slog.Int("moved", len(result.Moved)),
		slog.Int("skipped", len(result.Skipped)))

	if len(result.Moved) > 0 {
		from := make([]uuid.UUID, 0, len(fromTopics))
		for id := range fromTopics {
			from = append(from, id)
		}
		s.emit(ctx, events.TypeCardMoved, events.CardMoved{
			CardIDs:      result.Moved,
			FromTopicIDs: from,
			ToTopicID:    topicID,
		})
	}
	return result, nil
}

func (s *cardServiceImpl) List(ctx context.Context, opts ListOptions) ([]*domain.Card, error) {
	order, err := ParseSortOrder(string(opts.Sort))
	if err != nil {
		return nil, err
	}

	filter, err := topicFilter(ctx, s.topics, opts.TopicID, opts.IncludeSubtopics)
	if err != nil {
		return nil, NewServiceError("card", "list", "failed to resolve topic", err)
	}

	cards, err := s.cards.List(ctx, filter)
	if err != nil {
		return nil, NewServiceError("card", "list", "failed to list cards", err)
	}
	cards = s.matcher.Match(opts.Query, cards)

	var rates map[uuid.UUID]float64
	if order.NeedsRetention() && len(cards) > 0 {
		rates, err = s.retention.Rates(ctx, distinctTopics(cards))
		if err != nil {
			return nil, NewServiceError("card", "list", "failed to compute retention", err)
		}
	}

	return SortCards(order, cards, rates)
}

func (s *cardServiceImpl) emit(ctx context.Context, eventType string, payload any) {
	if err := events.Emit(ctx, s.emitter, eventType, payload); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

func distinctTopics(cards []*domain.Card) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, c := range cards {
		if _, ok := seen[c.TopicID]; !ok {
			seen[c.TopicID] = struct{}{}
			ids = append(ids, c.TopicID)
		}
	}
	return ids
}
