package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/domain/srs"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
)

// CreateTopicRequest is the payload for POST /api/topics.
type CreateTopicRequest struct {
	Name     string     `json:"name" validate:"required,max=200"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateTopicRequest is the payload for PATCH /api/topics/{id}. A nil Name
// keeps the name. ParentID moves the topic; MakeRoot detaches it instead.
type UpdateTopicRequest struct {
	Name     *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	MakeRoot bool       `json:"make_root,omitempty"`
}

// TopicResponse is the wire form of a topic.
type TopicResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Children  []TopicResponse `json:"children,omitempty"`
}

// CreateCardRequest is the payload for POST /api/cards.
type CreateCardRequest struct {
	TopicID uuid.UUID `json:"topic_id" validate:"required"`
	Front   string    `json:"front" validate:"required"`
	Back    string    `json:"back"`
}

// UpdateCardRequest is the payload for PUT /api/cards/{id}.
type UpdateCardRequest struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back"`
}

// MoveCardRequest is the payload for POST /api/cards/{id}/move.
type MoveCardRequest struct {
	TopicID uuid.UUID `json:"topic_id" validate:"required"`
}

// BulkMoveRequest is the payload for POST /api/cards/move.
type BulkMoveRequest struct {
	CardIDs []uuid.UUID `json:"card_ids" validate:"required,min=1"`
	TopicID uuid.UUID   `json:"topic_id" validate:"required"`
}

// BulkMoveResponse reports the outcome of a bulk move.
type BulkMoveResponse struct {
	Moved   []uuid.UUID `json:"moved"`
	Skipped []uuid.UUID `json:"skipped"`
}

// CardResponse is the wire form of a card.
type CardResponse struct {
	ID        uuid.UUID            `json:"id"`
	TopicID   uuid.UUID            `json:"topic_id"`
	Front     string               `json:"front"`
	Back      string               `json:"back"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Schedule  domain.ScheduleState `json:"schedule"`
}

// DueResponse lists due cards.
type DueResponse struct {
	AsOf  time.Time      `json:"as_of"`
	Count int            `json:"count"`
	Cards []CardResponse `json:"cards"`
}

// StartSessionRequest is the payload for POST /api/sessions.
type StartSessionRequest struct {
	TopicID          *uuid.UUID `json:"topic_id,omitempty"`
	IncludeSubtopics bool       `json:"include_subtopics,omitempty"`
}

// SessionResponse describes an open review session.
type SessionResponse struct {
	ID        uuid.UUID       `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Progress  review.Progress `json:"progress"`
	Done      bool            `json:"done"`
	Next      *CardResponse   `json:"next,omitempty"`
}

// SubmitReviewRequest is the payload for POST /api/sessions/{id}/submit.
type SubmitReviewRequest struct {
	CardID  uuid.UUID `json:"card_id" validate:"required"`
	Success *bool     `json:"success" validate:"required"`
}

// SkipCardRequest is the payload for POST /api/sessions/{id}/skip.
type SkipCardRequest struct {
	CardID uuid.UUID `json:"card_id" validate:"required"`
}

// SubmitReviewResponse reports a committed review.
type SubmitReviewResponse struct {
	Card       CardResponse    `json:"card"`
	ReviewedAt time.Time       `json:"reviewed_at"`
	Repaired   []srs.Violation `json:"repaired,omitempty"`
	Session    SessionResponse `json:"session"`
}

// TopicRetentionResponse reports a topic's mean retention rate.
type TopicRetentionResponse struct {
	TopicID       uuid.UUID `json:"topic_id"`
	RetentionRate float64   `json:"retention_rate"`
}

// BackupResponse reports a written backup file.
type BackupResponse struct {
	Path string `json:"path"`
}

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:        card.ID,
		TopicID:   card.TopicID,
		Front:     card.Front,
		Back:      card.Back,
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
		Schedule:  card.Schedule,
	}
}

func cardsToResponse(cards []*domain.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardToResponse(c))
	}
	return out
}

func topicToResponse(topic *domain.Topic) TopicResponse {
	return TopicResponse{
		ID:        topic.ID,
		Name:      topic.Name,
		ParentID:  topic.ParentID,
		CreatedAt: topic.CreatedAt,
	}
}

func treeToResponse(nodes []*service.TopicNode) []TopicResponse {
	out := make([]TopicResponse, 0, len(nodes))
	for _, n := range nodes {
		resp := topicToResponse(n.Topic)
		resp.Children = treeToResponse(n.Children)
		out = append(out, resp)
	}
	return out
}

func sessionToResponse(s *review.Session) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID(),
		StartedAt: s.StartedAt(),
		Progress:  s.Progress(),
		Done:      s.Done(),
	}
	if next, ok := s.Next(); ok {
		c := cardToResponse(next)
		resp.Next = &c
	}
	return resp
}
