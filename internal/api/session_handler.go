package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service/review"
)

// SessionHandler serves review session endpoints.
type SessionHandler struct {
	sessions *review.Manager
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *review.Manager, logger *slog.Logger) *SessionHandler {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session manager cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger.With(slog.String("component", "session_handler"))}
}

// StartSession handles POST /api/sessions. An empty body starts a session
// over every due card.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	session, err := h.sessions.Start(r.Context(), req.TopicID, req.IncludeSubtopics)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// GetSession handles GET /api/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// SubmitReview handles POST /api/sessions/{id}/submit.
func (h *SessionHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := session.Submit(r.Context(), req.CardID, *req.Success)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("review submitted",
		slog.String("session_id", session.ID().String()),
		slog.String("card_id", req.CardID.String()),
		slog.Bool("success", *req.Success))
	shared.RespondWithJSON(w, r, http.StatusOK, SubmitReviewResponse{
		Card:       cardToResponse(outcome.Card),
		ReviewedAt: outcome.Record.Timestamp,
		Repaired:   outcome.Violations,
		Session:    sessionToResponse(session),
	})
}

// SkipCard handles POST /api/sessions/{id}/skip.
func (h *SessionHandler) SkipCard(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SkipCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := session.Skip(req.CardID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// EndSession handles DELETE /api/sessions/{id}.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.sessions.End(id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*review.Session, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return session, true
}
