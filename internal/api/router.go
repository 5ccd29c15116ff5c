package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/lazycard/internal/api/middleware"
)

// MetricsProvider instruments requests and serves the metrics endpoint.
type MetricsProvider interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// RouterDeps bundles the handlers mounted by NewRouter. Metrics and Backups
// are optional.
type RouterDeps struct {
	Topics   *TopicHandler
	Cards    *CardHandler
	Due      *DueHandler
	Sessions *SessionHandler
	Backups  *BackupHandler
	Metrics  MetricsProvider
	Logger   *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/topics", func(r chi.Router) {
			r.Get("/", deps.Topics.ListTopics)
			r.Post("/", deps.Topics.CreateTopic)
			r.Get("/{id}", deps.Topics.GetTopic)
			r.Patch("/{id}", deps.Topics.UpdateTopic)
			r.Delete("/{id}", deps.Topics.DeleteTopic)
			r.Get("/{id}/retention", deps.Topics.GetTopicRetention)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", deps.Cards.ListCards)
			r.Post("/", deps.Cards.CreateCard)
			r.Post("/move", deps.Cards.BulkMoveCards)
			r.Get("/{id}", deps.Cards.GetCard)
			r.Put("/{id}", deps.Cards.EditCard)
			r.Delete("/{id}", deps.Cards.DeleteCard)
			r.Post("/{id}/move", deps.Cards.MoveCard)
			r.Get("/{id}/retention", deps.Cards.GetCardRetention)
		})

		r.Get("/due", deps.Due.ListDue)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", deps.Sessions.StartSession)
			r.Get("/{id}", deps.Sessions.GetSession)
			r.Delete("/{id}", deps.Sessions.EndSession)
			r.Post("/{id}/submit", deps.Sessions.SubmitReview)
			r.Post("/{id}/skip", deps.Sessions.SkipCard)
		})

		if deps.Backups != nil {
			r.Post("/backup", deps.Backups.CreateBackup)
			r.Get("/export", deps.Backups.ExportSnapshot)
		}
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	return r
}
