package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/store"
)

const reviewColumns = `id, card_id, reviewed_at, success, interval_before, interval_after`

// SQLReviewStore implements store.ReviewStore.
type SQLReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReviewStore = (*SQLReviewStore)(nil)

type reviewRow struct {
	ID             uuid.UUID `db:"id"`
	CardID         uuid.UUID `db:"card_id"`
	ReviewedAt     int64     `db:"reviewed_at"`
	Success        bool      `db:"success"`
	IntervalBefore float64   `db:"interval_before"`
	IntervalAfter  float64   `db:"interval_after"`
}

func (r reviewRow) toDomain() *domain.ReviewRecord {
	return &domain.ReviewRecord{
		ID:             r.ID,
		CardID:         r.CardID,
		Timestamp:      fromNanos(r.ReviewedAt),
		Success:        r.Success,
		IntervalBefore: r.IntervalBefore,
		IntervalAfter:  r.IntervalAfter,
	}
}

// NewSQLReviewStore creates a new review history store.
func NewSQLReviewStore(db store.DBTX, logger *slog.Logger) *SQLReviewStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// WithTx implements store.ReviewStore.
func (s *SQLReviewStore) WithTx(tx *sqlx.Tx) store.ReviewStore {
	return &SQLReviewStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewStore.
func (s *SQLReviewStore) Append(ctx context.Context, record *domain.ReviewRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	latest, ok, err := s.LatestTimestamp(ctx, record.CardID)
	if err != nil {
		return err
	}
	if ok && !record.Timestamp.After(latest) {
		log.Warn("rejecting non-monotonic review record",
			slog.String("card_id", record.CardID.String()),
			slog.Time("timestamp", record.Timestamp),
			slog.Time("latest", latest))
		return store.ErrNonMonotonicReview
	}

	query := s.db.Rebind(`INSERT INTO review_records (` + reviewColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		record.ID.String(),
		record.CardID.String(),
		toNanos(record.Timestamp),
		record.Success,
		record.IntervalBefore,
		record.IntervalAfter,
	)
	if err != nil {
		mapped := MapError(err)
		if isForeignKeyViolation(mapped) {
			return store.ErrCardNotFound
		}
		return store.NewStoreError("review_record", "append", "failed to insert review record", mapped)
	}
	return nil
}

// ListByCard implements store.ReviewStore.
func (s *SQLReviewStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewRecord, error) {
	var rows []reviewRow
	query := s.db.Rebind(`SELECT ` + reviewColumns + ` FROM review_records WHERE card_id = ? ORDER BY reviewed_at`)
	if err := s.db.SelectContext(ctx, &rows, query, cardID.String()); err != nil {
		return nil, store.NewStoreError("review_record", "list", "failed to list review records", MapError(err))
	}
	return recordsFromRows(rows), nil
}

// ListAll implements store.ReviewStore.
func (s *SQLReviewStore) ListAll(ctx context.Context) ([]*domain.ReviewRecord, error) {
	var rows []reviewRow
	query := `SELECT ` + reviewColumns + ` FROM review_records ORDER BY card_id, reviewed_at`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, store.NewStoreError("review_record", "list_all", "failed to list review records", MapError(err))
	}
	return recordsFromRows(rows), nil
}

// Counts implements store.ReviewStore.
func (s *SQLReviewStore) Counts(ctx context.Context, cardID uuid.UUID) (store.ReviewCounts, error) {
	counts := store.ReviewCounts{CardID: cardID}
	query := s.db.Rebind(`SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successes
		FROM review_records WHERE card_id = ?`)
	if err := s.db.GetContext(ctx, &counts, query, cardID.String()); err != nil {
		return store.ReviewCounts{}, store.NewStoreError("review_record", "counts", "failed to count reviews", MapError(err))
	}
	counts.CardID = cardID
	return counts, nil
}

// CountsByTopics implements store.ReviewStore.
func (s *SQLReviewStore) CountsByTopics(ctx context.Context, topicIDs []uuid.UUID) ([]store.ReviewCounts, error) {
	if len(topicIDs) == 0 {
		return []store.ReviewCounts{}, nil
	}

	query, args, err := sqlx.In(`SELECT r.card_id AS card_id, COUNT(*) AS total,
		SUM(CASE WHEN r.success THEN 1 ELSE 0 END) AS successes
		FROM review_records r JOIN cards c ON c.id = r.card_id
		WHERE c.topic_id IN (?)
		GROUP BY r.card_id
		ORDER BY r.card_id`, idStrings(topicIDs))
	if err != nil {
		return nil, store.NewStoreError("review_record", "counts_by_topic", "failed to build query", err)
	}

	var counts []store.ReviewCounts
	if err := s.db.SelectContext(ctx, &counts, s.db.Rebind(query), args...); err != nil {
		return nil, store.NewStoreError("review_record", "counts_by_topic", "failed to count reviews", MapError(err))
	}
	return counts, nil
}

// LatestTimestamp implements store.ReviewStore.
func (s *SQLReviewStore) LatestTimestamp(ctx context.Context, cardID uuid.UUID) (time.Time, bool, error) {
	var latest sql.NullInt64
	query := s.db.Rebind(`SELECT MAX(reviewed_at) FROM review_records WHERE card_id = ?`)
	if err := s.db.GetContext(ctx, &latest, query, cardID.String()); err != nil {
		return time.Time{}, false, store.NewStoreError("review_record", "latest", "failed to read latest review", MapError(err))
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return fromNanos(latest.Int64), true, nil
}

// DeleteByCard implements store.ReviewStore.
func (s *SQLReviewStore) DeleteByCard(ctx context.Context, cardID uuid.UUID) error {
	query := s.db.Rebind(`DELETE FROM review_records WHERE card_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, cardID.String()); err != nil {
		return store.NewStoreError("review_record", "delete", "failed to delete review history", MapError(err))
	}
	return nil
}

// DeleteAll implements store.ReviewStore.
func (s *SQLReviewStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM review_records`); err != nil {
		return store.NewStoreError("review_record", "delete_all", "failed to delete review history", MapError(err))
	}
	return nil
}

func recordsFromRows(rows []reviewRow) []*domain.ReviewRecord {
	records := make([]*domain.ReviewRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records
}
