package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/store"
)

const cardColumns = `id, topic_id, front, back, created_at, updated_at,
	due_at, interval_days, easiness, consecutive_successes, last_reviewed_at`

// SQLCardStore implements store.CardStore.
type SQLCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CardStore = (*SQLCardStore)(nil)

type cardRow struct {
	ID                   uuid.UUID `db:"id"`
	TopicID              uuid.UUID `db:"topic_id"`
	Front                string    `db:"front"`
	Back                 string    `db:"back"`
	CreatedAt            int64     `db:"created_at"`
	UpdatedAt            int64     `db:"updated_at"`
	DueAt                int64     `db:"due_at"`
	IntervalDays         float64   `db:"interval_days"`
	Easiness             float64   `db:"easiness"`
	ConsecutiveSuccesses int       `db:"consecutive_successes"`
	LastReviewedAt       int64     `db:"last_reviewed_at"`
}

func (r cardRow) toDomain() *domain.Card {
	return &domain.Card{
		ID:        r.ID,
		TopicID:   r.TopicID,
		Front:     r.Front,
		Back:      r.Back,
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
		Schedule: domain.ScheduleState{
			DueAt:                fromNanos(r.DueAt),
			IntervalDays:         r.IntervalDays,
			Easiness:             r.Easiness,
			ConsecutiveSuccesses: r.ConsecutiveSuccesses,
			LastReviewedAt:       fromNanos(r.LastReviewedAt),
		},
	}
}

func cardsFromRows(rows []cardRow) []*domain.Card {
	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.toDomain())
	}
	return cards
}

// NewSQLCardStore creates a new card store.
func NewSQLCardStore(db store.DBTX, logger *slog.Logger) *SQLCardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// WithTx implements store.CardStore.
func (s *SQLCardStore) WithTx(tx *sqlx.Tx) store.CardStore {
	return &SQLCardStore{db: tx, logger: s.logger}
}

// Create implements store.CardStore.
func (s *SQLCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		card.ID.String(),
		card.TopicID.String(),
		card.Front,
		card.Back,
		toNanos(card.CreatedAt),
		toNanos(card.UpdatedAt),
		toNanos(card.Schedule.DueAt),
		card.Schedule.IntervalDays,
		card.Schedule.Easiness,
		card.Schedule.ConsecutiveSuccesses,
		toNanos(card.Schedule.LastReviewedAt),
	)
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrTopicMissing
		}
		log.Error("failed to create card",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("card", "create", "failed to insert card", mapped)
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("topic_id", card.TopicID.String()))
	return nil
}

// GetByID implements store.CardStore.
func (s *SQLCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	var row cardRow
	query := s.db.Rebind(`SELECT ` + cardColumns + ` FROM cards WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get", "failed to load card", MapError(err))
	}
	return row.toDomain(), nil
}

// Update implements store.CardStore.
func (s *SQLCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`UPDATE cards SET front = ?, back = ?, updated_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		card.Front, card.Back, toNanos(card.UpdatedAt), card.ID.String())
	if err != nil {
		return store.NewStoreError("card", "update", "failed to update card", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// UpdateSchedule implements store.CardStore.
func (s *SQLCardStore) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule domain.ScheduleState) error {
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`UPDATE cards SET due_at = ?, interval_days = ?, easiness = ?,
		consecutive_successes = ?, last_reviewed_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		toNanos(schedule.DueAt),
		schedule.IntervalDays,
		schedule.Easiness,
		schedule.ConsecutiveSuccesses,
		toNanos(schedule.LastReviewedAt),
		id.String(),
	)
	if err != nil {
		return store.NewStoreError("card", "update_schedule", "failed to update schedule", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// UpdateTopic implements store.CardStore.
func (s *SQLCardStore) UpdateTopic(ctx context.Context, id, topicID uuid.UUID, updatedAt time.Time) error {
	query := s.db.Rebind(`UPDATE cards SET topic_id = ?, updated_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, topicID.String(), toNanos(updatedAt), id.String())
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrTopicMissing
		}
		return store.NewStoreError("card", "move", "failed to move card", mapped)
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// Delete implements store.CardStore.
func (s *SQLCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM cards WHERE id = ?`), id.String())
	if err != nil {
		return store.NewStoreError("card", "delete", "failed to delete card", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// DeleteAll implements store.CardStore.
func (s *SQLCardStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return store.NewStoreError("card", "delete_all", "failed to delete cards", MapError(err))
	}
	return nil
}

// List implements store.CardStore.
func (s *SQLCardStore) List(ctx context.Context, filter store.CardFilter) ([]*domain.Card, error) {
	if filter.TopicIDs != nil && len(filter.TopicIDs) == 0 {
		return []*domain.Card{}, nil
	}

	query := `SELECT ` + cardColumns + ` FROM cards`
	var args []any
	if len(filter.TopicIDs) > 0 {
		query += ` WHERE topic_id IN (?)`
		args = append(args, idStrings(filter.TopicIDs))
	}
	query += ` ORDER BY id`

	var rows []cardRow
	if err := s.selectIn(ctx, &rows, query, args...); err != nil {
		return nil, store.NewStoreError("card", "list", "failed to list cards", err)
	}
	return cardsFromRows(rows), nil
}

// ListDue implements store.CardStore.
func (s *SQLCardStore) ListDue(ctx context.Context, filter store.CardFilter, asOf time.Time) ([]*domain.Card, error) {
	if filter.TopicIDs != nil && len(filter.TopicIDs) == 0 {
		return []*domain.Card{}, nil
	}

	query, args := dueWhere(`SELECT `+cardColumns+` FROM cards`, filter, asOf)
	query += ` ORDER BY due_at, id`

	var rows []cardRow
	if err := s.selectIn(ctx, &rows, query, args...); err != nil {
		return nil, store.NewStoreError("card", "list_due", "failed to list due cards", err)
	}
	return cardsFromRows(rows), nil
}

// CountDue implements store.CardStore.
func (s *SQLCardStore) CountDue(ctx context.Context, filter store.CardFilter, asOf time.Time) (int, error) {
	if filter.TopicIDs != nil && len(filter.TopicIDs) == 0 {
		return 0, nil
	}

	query, args := dueWhere(`SELECT COUNT(*) FROM cards`, filter, asOf)
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return 0, store.NewStoreError("card", "count_due", "failed to build query", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(expanded), expandedArgs...); err != nil {
		return 0, store.NewStoreError("card", "count_due", "failed to count due cards", MapError(err))
	}
	return count, nil
}

func dueWhere(base string, filter store.CardFilter, asOf time.Time) (string, []any) {
	query := base + ` WHERE due_at <= ?`
	args := []any{toNanos(asOf)}
	if len(filter.TopicIDs) > 0 {
		query += ` AND topic_id IN (?)`
		args = append(args, idStrings(filter.TopicIDs))
	}
	return query, args
}

// selectIn expands slice arguments for IN clauses and rebinds placeholders
// for the active driver.
func (s *SQLCardStore) selectIn(ctx context.Context, dest any, query string, args ...any) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	if err := s.db.SelectContext(ctx, dest, s.db.Rebind(expanded), expandedArgs...); err != nil {
		return MapError(err)
	}
	return nil
}
