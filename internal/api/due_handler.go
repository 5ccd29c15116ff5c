package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
)

// DueLister answers due-card queries.
type DueLister interface {
	DueCards(ctx context.Context, q service.DueQuery) ([]*domain.Card, error)
	DueMatching(ctx context.Context, query string, q service.DueQuery) ([]*domain.Card, error)
}

// DueHandler serves GET /api/due.
type DueHandler struct {
	due    DueLister
	now    domain.Clock
	logger *slog.Logger
}

// NewDueHandler creates a DueHandler.
func NewDueHandler(due DueLister, clock domain.Clock, logger *slog.Logger) *DueHandler {
	if due == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("due lister cannot be nil")
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DueHandler{due: due, now: clock, logger: logger.With(slog.String("component", "due_handler"))}
}

// ListDue handles GET /api/due?topic=&subtopics=&q=.
func (h *DueHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	topicID, err := getQueryUUID(r, "topic")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	subtopics, err := getQueryBool(r, "subtopics")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	q := service.DueQuery{TopicID: topicID, IncludeSubtopics: subtopics, AsOf: h.now()}
	var cards []*domain.Card
	if text := r.URL.Query().Get("q"); text != "" {
		cards, err = h.due.DueMatching(r.Context(), text, q)
	} else {
		cards, err = h.due.DueCards(r.Context(), q)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueResponse{
		AsOf:  q.AsOf,
		Count: len(cards),
		Cards: cardsToResponse(cards),
	})
}
