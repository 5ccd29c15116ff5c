package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/store"
)

// TopicNode is a topic together with its subtopics, for tree listings.
type TopicNode struct {
	Topic    *domain.Topic `json:"topic"`
	Children []*TopicNode  `json:"children"`
}

// TopicService provides topic-related operations.
type TopicService interface {
	// Create adds a topic under an optional parent.
	// Returns store.ErrTopicMissing if the parent does not exist.
	Create(ctx context.Context, name string, parentID *uuid.UUID) (*domain.Topic, error)

	// Get retrieves a topic by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// List returns every topic ordered by name.
	List(ctx context.Context) ([]*domain.Topic, error)

	// Tree returns the topic forest with children ordered by name.
	Tree(ctx context.Context) ([]*TopicNode, error)

	// Rename changes a topic's name.
	Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Topic, error)

	// Reparent moves a topic under a new parent, or to the root when parentID
	// is nil. Returns store.ErrTopicCycle if the new parent is the topic
	// itself or one of its descendants.
	Reparent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (*domain.Topic, error)

	// Delete removes an empty topic.
	// Returns store.ErrTopicNotEmpty if it still has cards or subtopics.
	Delete(ctx context.Context, id uuid.UUID) error

	// EnsurePath resolves a slash-separated topic path such as "Lang/Go",
	// creating missing segments.
	EnsurePath(ctx context.Context, path string) (*domain.Topic, error)
}

type topicServiceImpl struct {
	db     *sqlx.DB
	topics store.TopicStore
	now    domain.Clock
	logger *slog.Logger
}

// NewTopicService creates a new TopicService.
// It returns an error if any of the required dependencies are nil.
func NewTopicService(db *sqlx.DB, topics store.TopicStore, clock domain.Clock, logger *slog.Logger) (TopicService, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db cannot be nil", domain.ErrValidation)
	}
	if topics == nil {
		return nil, fmt.Errorf("%w: topic store cannot be nil", domain.ErrValidation)
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &topicServiceImpl{
		db:     db,
		topics: topics,
		now:    clock,
		logger: logger.With(slog.String("component", "topic_service")),
	}, nil
}

func (s *topicServiceImpl) Create(ctx context.Context, name string, parentID *uuid.UUID) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	topic, err := domain.NewTopic(name, parentID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.topics.Create(ctx, topic); err != nil {
		log.Debug("failed to create topic", slog.String("name", topic.Name), slog.String("error", err.Error()))
		return nil, NewServiceError("topic", "create", "failed to save topic", err)
	}

	log.Info("topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("name", topic.Name))
	return topic, nil
}

func (s *topicServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("topic", "get", "failed to load topic", err)
	}
	return topic, nil
}

func (s *topicServiceImpl) List(ctx context.Context) ([]*domain.Topic, error) {
	topics, err := s.topics.List(ctx)
	if err != nil {
		return nil, NewServiceError("topic", "list", "failed to list topics", err)
	}
	return topics, nil
}

func (s *topicServiceImpl) Tree(ctx context.Context) ([]*TopicNode, error) {
	topics, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(topics), nil
}

// BuildTree arranges topics into a forest. Topics whose parent is not in the
// input are treated as roots. Siblings keep the input order.
func BuildTree(topics []*domain.Topic) []*TopicNode {
	nodes := make(map[uuid.UUID]*TopicNode, len(topics))
	for _, t := range topics {
		nodes[t.ID] = &TopicNode{Topic: t, Children: []*TopicNode{}}
	}

	roots := make([]*TopicNode, 0)
	for _, t := range topics {
		node := nodes[t.ID]
		if t.ParentID != nil {
			if parent, ok := nodes[*t.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *topicServiceImpl) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Topic, error) {
	var renamed *domain.Topic
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		topics := s.topics.WithTx(tx)

		topic, err := topics.GetByID(ctx, id)
		if err != nil {
			return err
		}
		topic.Name = strings.TrimSpace(name)
		if err := topic.Validate(); err != nil {
			return err
		}
		if err := topics.Update(ctx, topic); err != nil {
			return err
		}
		renamed = topic
		return nil
	})
	if err != nil {
		return nil, NewServiceError("topic", "rename", "failed to rename topic", err)
	}
	return renamed, nil
}

func (s *topicServiceImpl) Reparent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var moved *domain.Topic
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		topics := s.topics.WithTx(tx)

		topic, err := topics.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if parentID != nil {
			if _, err := topics.GetByID(ctx, *parentID); err != nil {
				if store.IsNotFoundError(err) {
					return store.ErrTopicMissing
				}
				return err
			}
			subtree, err := topics.Descendants(ctx, id)
			if err != nil {
				return err
			}
			if slices.Contains(subtree, *parentID) {
				log.Warn("rejecting topic reparent that would create a cycle",
					slog.String("topic_id", id.String()),
					slog.String("parent_id", parentID.String()))
				return store.ErrTopicCycle
			}
		}

		topic.ParentID = parentID
		if err := topics.Update(ctx, topic); err != nil {
			return err
		}
		moved = topic
		return nil
	})
	if err != nil {
		return nil, NewServiceError("topic", "reparent", "failed to move topic", err)
	}
	return moved, nil
}

func (s *topicServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.topics.Delete(ctx, id); err != nil {
		return NewServiceError("topic", "delete", "failed to delete topic", err)
	}
	log.Info("topic deleted", slog.String("topic_id", id.String()))
	return nil
}

// SplitTopicPath splits "A/B/C" into trimmed, non-empty segments.
func SplitTopicPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func (s *topicServiceImpl) EnsurePath(ctx context.Context, path string) (*domain.Topic, error) {
	segments := SplitTopicPath(path)
	if len(segments) == 0 {
		return nil, ErrEmptyTopicPath
	}

	var leaf *domain.Topic
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		topics := s.topics.WithTx(tx)

		existing, err := topics.List(ctx)
		if err != nil {
			return err
		}

		var parent *uuid.UUID
		for _, name := range segments {
			found := findChild(existing, parent, name)
			if found == nil {
				found, err = domain.NewTopic(name, parent, s.now())
				if err != nil {
					return err
				}
				if err := topics.Create(ctx, found); err != nil {
					return err
				}
				existing = append(existing, found)
			}
			id := found.ID
			parent = &id
			leaf = found
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("topic", "ensure_path", "failed to resolve topic path", err)
	}
	return leaf, nil
}

func findChild(topics []*domain.Topic, parent *uuid.UUID, name string) *domain.Topic {
	for _, t := range topics {
		if !strings.EqualFold(t.Name, name) {
			continue
		}
		if parent == nil && t.ParentID == nil {
			return t
		}
		if parent != nil && t.ParentID != nil && *parent == *t.ParentID {
			return t
		}
	}
	return nil
}
