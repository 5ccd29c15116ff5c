package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
)

// CardHandler serves card endpoints.
type CardHandler struct {
	cards     service.CardService
	retention retention.Calculator
	logger    *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cards service.CardService, calc retention.Calculator, logger *slog.Logger) *CardHandler {
	if cards == nil || calc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card service and retention calculator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cards:     cards,
		retention: calc,
		logger:    logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /api/cards.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	card, err := h.cards.Create(r.Context(), req.TopicID, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// ListCards handles GET /api/cards?topic=&subtopics=&q=&sort=.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
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
	order, err := service.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.cards.List(r.Context(), service.ListOptions{
		TopicID:          topicID,
		IncludeSubtopics: subtopics,
		Query:            r.URL.Query().Get("q"),
		Sort:             order,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// GetCard handles GET /api/cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	card, err := h.cards.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// EditCard handles PUT /api/cards/{id}.
func (h *CardHandler) EditCard(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req UpdateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	card, err := h.cards.Update(r.Context(), id, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /api/cards/{id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.cards.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Debug("card deleted", slog.String("card_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// MoveCard handles POST /api/cards/{id}/move.
func (h *CardHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req MoveCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	card, err := h.cards.Move(r.Context(), id, req.TopicID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// BulkMoveCards handles POST /api/cards/move.
func (h *CardHandler) BulkMoveCards(w http.ResponseWriter, r *http.Request) {
	var req BulkMoveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.cards.BulkMove(r.Context(), req.CardIDs, req.TopicID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BulkMoveResponse{Moved: result.Moved, Skipped: result.Skipped})
}

// GetCardRetention handles GET /api/cards/{id}/retention.
func (h *CardHandler) GetCardRetention(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if _, err := h.cards.Get(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	summary, err := h.retention.Summary(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
