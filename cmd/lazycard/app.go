package main

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/backup"
	"github.com/phrazzld/lazycard/internal/config"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/importer"
	"github.com/phrazzld/lazycard/internal/metrics"
	"github.com/phrazzld/lazycard/internal/platform/sqldb"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/phrazzld/lazycard/internal/store"
	"github.com/phrazzld/lazycard/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	now    domain.Clock

	topicStore  store.TopicStore
	cardStore   store.CardStore
	reviewStore store.ReviewStore

	scheduler  srs.Service
	emitter    *events.InMemoryEventEmitter
	metrics    *metrics.Metrics
	retention  *retention.Cached
	dispatcher *task.Dispatcher

	topics    service.TopicService
	cards     service.CardService
	due       *service.DueIndex
	reviewer  *review.QueuedService
	sessions  *review.Manager
	backups   *backup.Service
	snapshots *backup.Scheduler
	importer  *importer.Importer
}

// newApplication wires the stores and services over an open, migrated
// database. The commit dispatcher is started; the backup scheduler is not.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		now:    domain.SystemClock,
	}

	app.topicStore = sqldb.NewSQLTopicStore(db, logger)
	app.cardStore = sqldb.NewSQLCardStore(db, logger)
	app.reviewStore = sqldb.NewSQLReviewStore(db, logger)

	var err error
	app.scheduler, err = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		InitialEasiness: cfg.Scheduler.InitialEasiness,
		MinEasiness:     cfg.Scheduler.MinEasiness,
		MinIntervalDays: cfg.Scheduler.MinIntervalDays,
		MaxIntervalDays: cfg.Scheduler.MaxIntervalDays,
		SuccessQuality:  cfg.Scheduler.SuccessQuality,
		FailurePenalty:  cfg.Scheduler.FailurePenalty,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.metrics = metrics.New()
	app.emitter.RegisterHandler(app.metrics)

	app.retention = retention.NewCached(retention.NewCalculator(app.reviewStore, logger), logger)
	app.emitter.RegisterHandler(app.retention)

	app.topics, err = service.NewTopicService(db, app.topicStore, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic service: %w", err)
	}

	app.cards, err = service.NewCardService(service.CardServiceDeps{
		DB:        db,
		Topics:    app.topicStore,
		Cards:     app.cardStore,
		Reviews:   app.reviewStore,
		Scheduler: app.scheduler,
		Retention: app.retention,
		Emitter:   app.emitter,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}

	app.due, err = service.NewDueIndex(app.topicStore, app.cardStore, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create due index: %w", err)
	}

	app.dispatcher = task.NewDispatcher(task.DispatcherConfig{
		Workers:   cfg.Dispatcher.Workers,
		QueueSize: cfg.Dispatcher.QueueSize,
	}, logger)
	app.dispatcher.Start()

	direct := review.NewService(db, app.cardStore, app.reviewStore, app.scheduler, app.emitter, logger,
		review.WithObserver(app.metrics))
	app.reviewer = review.NewQueuedService(direct, app.dispatcher)

	app.sessions = review.NewManager(app.due, app.reviewer, app.retention, logger,
		review.WithShuffle(cfg.Session.Shuffle),
		review.WithSessionTTL(cfg.Session.IdleTimeout))
	app.emitter.RegisterHandler(app.sessions)

	app.backups, err = backup.NewService(db, app.topicStore, app.cardStore, app.reviewStore, app.emitter, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup service: %w", err)
	}
	app.snapshots, err = backup.NewScheduler(app.backups, cfg.Backup, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup scheduler: %w", err)
	}

	app.importer, err = importer.NewImporter(app.topics, app.cards, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create importer: %w", err)
	}

	logger.Debug("application initialized")
	return app, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.snapshots != nil {
		app.snapshots.Stop()
	}
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Debug("application shutdown completed")
}
