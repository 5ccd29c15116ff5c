package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/store"
)

// SQLTopicStore implements store.TopicStore.
type SQLTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TopicStore = (*SQLTopicStore)(nil)

type topicRow struct {
	ID        uuid.UUID     `db:"id"`
	Name      string        `db:"name"`
	ParentID  uuid.NullUUID `db:"parent_id"`
	CreatedAt int64         `db:"created_at"`
}

func (r topicRow) toDomain() *domain.Topic {
	t := &domain.Topic{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: fromNanos(r.CreatedAt),
	}
	if r.ParentID.Valid {
		parent := r.ParentID.UUID
		t.ParentID = &parent
	}
	return t
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

// NewSQLTopicStore creates a new topic store.
func NewSQLTopicStore(db store.DBTX, logger *slog.Logger) *SQLTopicStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLTopicStore{
		db:     db,
		logger: logger.With(slog.String("component", "topic_store")),
	}
}

// WithTx implements store.TopicStore.
func (s *SQLTopicStore) WithTx(tx *sqlx.Tx) store.TopicStore {
	return &SQLTopicStore{db: tx, logger: s.logger}
}

// Create implements store.TopicStore.
func (s *SQLTopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`INSERT INTO topics (id, name, parent_id, created_at) VALUES (?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		topic.ID.String(), topic.Name, nullableID(topic.ParentID), toNanos(topic.CreatedAt))
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrTopicMissing
		}
		log.Error("failed to create topic",
			slog.String("topic_id", topic.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("topic", "create", "failed to insert topic", mapped)
	}

	log.Debug("topic created", slog.String("topic_id", topic.ID.String()))
	return nil
}

// GetByID implements store.TopicStore.
func (s *SQLTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	var row topicRow
	query := s.db.Rebind(`SELECT id, name, parent_id, created_at FROM topics WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTopicNotFound
		}
		return nil, store.NewStoreError("topic", "get", "failed to load topic", MapError(err))
	}
	return row.toDomain(), nil
}

// List implements store.TopicStore.
func (s *SQLTopicStore) List(ctx context.Context) ([]*domain.Topic, error) {
	var rows []topicRow
	query := `SELECT id, name, parent_id, created_at FROM topics ORDER BY name, id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, store.NewStoreError("topic", "list", "failed to list topics", MapError(err))
	}

	topics := make([]*domain.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, row.toDomain())
	}
	return topics, nil
}

// Descendants implements store.TopicStore.
func (s *SQLTopicStore) Descendants(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	query := s.db.Rebind(`
		WITH RECURSIVE tree (id) AS (
			SELECT id FROM topics WHERE id = ?
			UNION
			SELECT t.id FROM topics t JOIN tree ON t.parent_id = tree.id
		)
		SELECT id FROM tree ORDER BY id`)

	var ids []uuid.UUID
	if err := s.db.SelectContext(ctx, &ids, query, id.String()); err != nil {
		return nil, store.NewStoreError("topic", "descendants", "failed to walk topic tree", MapError(err))
	}
	return ids, nil
}

// Update implements store.TopicStore.
func (s *SQLTopicStore) Update(ctx context.Context, topic *domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.db.Rebind(`UPDATE topics SET name = ?, parent_id = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, topic.Name, nullableID(topic.ParentID), topic.ID.String())
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrTopicMissing
		}
		return store.NewStoreError("topic", "update", "failed to update topic", mapped)
	}
	return CheckRowsAffected(result, store.ErrTopicNotFound)
}

// Delete implements store.TopicStore.
func (s *SQLTopicStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	var dependents int
	query := s.db.Rebind(`
		SELECT (SELECT COUNT(*) FROM cards WHERE topic_id = ?)
		     + (SELECT COUNT(*) FROM topics WHERE parent_id = ?)`)
	if err := s.db.GetContext(ctx, &dependents, query, id.String(), id.String()); err != nil {
		return store.NewStoreError("topic", "delete", "failed to count dependents", MapError(err))
	}
	if dependents > 0 {
		return store.ErrTopicNotEmpty
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM topics WHERE id = ?`), id.String())
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrTopicNotEmpty
		}
		return store.NewStoreError("topic", "delete", "failed to delete topic", mapped)
	}
	return CheckRowsAffected(result, store.ErrTopicNotFound)
}

// DeleteAll implements store.TopicStore. Parent links are cleared first so
// the self-reference never blocks the delete.
func (s *SQLTopicStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE topics SET parent_id = NULL`); err != nil {
		return store.NewStoreError("topic", "delete_all", "failed to detach topics", MapError(err))
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM topics`); err != nil {
		return store.NewStoreError("topic", "delete_all", "failed to delete topics", MapError(err))
	}
	return nil
}
