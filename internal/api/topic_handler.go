package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
)

// TopicHandler serves topic endpoints.
type TopicHandler struct {
	topics    service.TopicService
	retention retention.Calculator
	logger    *slog.Logger
}

// NewTopicHandler creates a TopicHandler.
func NewTopicHandler(topics service.TopicService, calc retention.Calculator, logger *slog.Logger) *TopicHandler {
	if topics == nil || calc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("topic service and retention calculator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicHandler{
		topics:    topics,
		retention: calc,
		logger:    logger.With(slog.String("component", "topic_handler")),
	}
}

// CreateTopic handles POST /api/topics.
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	topic, err := h.topics.Create(r.Context(), req.Name, req.ParentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, topicToResponse(topic))
}

// ListTopics handles GET /api/topics. With ?tree=true the topics are nested.
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	asTree, err := getQueryBool(r, "tree")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if asTree {
		tree, err := h.topics.Tree(r.Context())
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, treeToResponse(tree))
		return
	}

	topics, err := h.topics.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	out := make([]TopicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetTopic handles GET /api/topics/{id}.
func (h *TopicHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	topic, err := h.topics.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, topicToResponse(topic))
}

// UpdateTopic handles PATCH /api/topics/{id}: rename and/or reparent.
func (h *TopicHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req UpdateTopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.MakeRoot && req.ParentID != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "parent_id and make_root are mutually exclusive")
		return
	}

	topic, err := h.topics.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.Name != nil {
		if topic, err = h.topics.Rename(r.Context(), id, *req.Name); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}
	if req.ParentID != nil || req.MakeRoot {
		if topic, err = h.topics.Reparent(r.Context(), id, req.ParentID); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	log.Debug("topic updated", slog.String("topic_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, topicToResponse(topic))
}

// DeleteTopic handles DELETE /api/topics/{id}.
func (h *TopicHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.topics.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTopicRetention handles GET /api/topics/{id}/retention.
func (h *TopicHandler) GetTopicRetention(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if _, err := h.topics.Get(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	rate, err := h.retention.TopicRetentionRate(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TopicRetentionResponse{TopicID: id, RetentionRate: rate})
}

// decodeAndValidate decodes the JSON body into req and validates it. It
// writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	log := logger.FromContext(r.Context())
	if err := shared.DecodeJSON(r, req); err != nil {
		log.Debug("invalid request body", slog.String("error", err.Error()))
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
		} else {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		}
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
