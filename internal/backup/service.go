package backup

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/store"
)

// Service exports and restores the collection.
type Service struct {
	db      *sqlx.DB
	topics  store.TopicStore
	cards   store.CardStore
	reviews store.ReviewStore
	emitter events.EventEmitter
	now     domain.Clock
	logger  *slog.Logger
}

// NewService creates a backup Service. The emitter may be nil.
func NewService(
	db *sqlx.DB,
	topics store.TopicStore,
	cards store.CardStore,
	reviews store.ReviewStore,
	emitter events.EventEmitter,
	clock domain.Clock,
	logger *slog.Logger,
) (*Service, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if topics == nil || cards == nil || reviews == nil {
		return nil, errors.New("stores cannot be nil")
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		topics:  topics,
		cards:   cards,
		reviews: reviews,
		emitter: emitter,
		now:     clock,
		logger:  logger.With(slog.String("component", "backup_service")),
	}, nil
}

// Export reads the whole collection in one transaction and returns it as a
// snapshot.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var snap *Snapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		topics, err := s.topics.WithTx(tx).List(ctx)
		if err != nil {
			return err
		}
		cards, err := s.cards.WithTx(tx).List(ctx, store.CardFilter{})
		if err != nil {
			return err
		}
		reviews, err := s.reviews.WithTx(tx).ListAll(ctx)
		if err != nil {
			return err
		}
		snap = NewSnapshot(topics, cards, reviews, s.now())
		return nil
	})
	if err != nil {
		log.Error("failed to export backup", slog.String("error", err.Error()))
		return nil, service.NewServiceError("backup", "export", "failed to export collection", err)
	}

	log.Info("collection exported",
		slog.Int("topics", len(snap.Topics)),
		slog.Int("cards", len(snap.Cards)),
		slog.Int("reviews", len(snap.Reviews)))
	return snap, nil
}

// Restore replaces the whole collection with the snapshot. The snapshot is
// validated first; the replacement happens in one transaction.
func (s *Service) Restore(ctx context.Context, snap *Snapshot) (events.BackupRestored, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := snap.Validate(); err != nil {
		log.Warn("rejecting invalid backup", slog.String("error", err.Error()))
		return events.BackupRestored{}, err
	}
	topics, err := snap.TopicsInOrder()
	if err != nil {
		return events.BackupRestored{}, err
	}

	reviews := slices.Clone(snap.Reviews)
	slices.SortStableFunc(reviews, func(a, b ReviewEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	err = store.RunInTransaction(context.WithoutCancel(ctx), s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		topicStore := s.topics.WithTx(tx)
		cardStore := s.cards.WithTx(tx)
		reviewStore := s.reviews.WithTx(tx)

		if err := reviewStore.DeleteAll(ctx); err != nil {
			return err
		}
		if err := cardStore.DeleteAll(ctx); err != nil {
			return err
		}
		if err := topicStore.DeleteAll(ctx); err != nil {
			return err
		}

		for _, t := range topics {
			if err := topicStore.Create(ctx, t.Topic()); err != nil {
				return err
			}
		}
		for _, c := range snap.Cards {
			if err := cardStore.Create(ctx, c.Card()); err != nil {
				return err
			}
		}
		for _, r := range reviews {
			if err := reviewStore.Append(ctx, r.Record()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to restore backup", slog.String("error", err.Error()))
		return events.BackupRestored{}, service.NewServiceError("backup", "restore", "failed to restore collection", err)
	}

	result := events.BackupRestored{
		Topics:  len(snap.Topics),
		Cards:   len(snap.Cards),
		Reviews: len(snap.Reviews),
	}
	log.Info("collection restored",
		slog.Int("topics", result.Topics),
		slog.Int("cards", result.Cards),
		slog.Int("reviews", result.Reviews),
		slog.Time("exported_at", snap.ExportedAt))

	if err := events.Emit(ctx, s.emitter, events.TypeBackupRestored, result); err != nil {
		log.Warn("failed to emit restore event", slog.String("error", err.Error()))
	}
	return result, nil
}

// ExportFile exports the collection and writes it atomically to path.
func (s *Service) ExportFile(ctx context.Context, path string, format Format) (*Snapshot, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(path, snap, format); err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreFile reads a snapshot from path and restores it.
func (s *Service) RestoreFile(ctx context.Context, path string) (events.BackupRestored, error) {
	snap, err := ReadFile(path)
	if err != nil {
		return events.BackupRestored{}, err
	}
	return s.Restore(ctx, snap)
}

// fileTimestamp is sortable and free of path separators.
const fileTimestamp = "20060102T150405.000000000Z"

// FileName returns the backup file name for a snapshot taken at t.
func FileName(t time.Time, format Format) string {
	return filePrefix + t.UTC().Format(fileTimestamp) + format.Extension()
}
