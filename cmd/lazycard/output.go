package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/store"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// resolveTopic finds a topic by ID or by slash-separated path such as
// "Languages/Spanish". Path segments match names case-insensitively.
func resolveTopic(ctx context.Context, topics service.TopicService, ref string) (*domain.Topic, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return topics.Get(ctx, id)
	}

	segments := service.SplitTopicPath(ref)
	if len(segments) == 0 {
		return nil, service.ErrEmptyTopicPath
	}
	all, err := topics.List(ctx)
	if err != nil {
		return nil, err
	}

	var current *domain.Topic
	for _, name := range segments {
		var next *domain.Topic
		for _, t := range all {
			if !strings.EqualFold(t.Name, name) || !sameParent(t.ParentID, current) {
				continue
			}
			next = t
			break
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %q", store.ErrTopicNotFound, ref)
		}
		current = next
	}
	return current, nil
}

func sameParent(parentID *uuid.UUID, parent *domain.Topic) bool {
	if parent == nil {
		return parentID == nil
	}
	return parentID != nil && *parentID == parent.ID
}

// optionalTopic resolves ref when it is set.
func optionalTopic(ctx context.Context, topics service.TopicService, ref string) (*uuid.UUID, error) {
	if ref == "" {
		return nil, nil
	}
	topic, err := resolveTopic(ctx, topics, ref)
	if err != nil {
		return nil, err
	}
	return &topic.ID, nil
}

// topicPaths maps every topic ID to its full path.
func topicPaths(topics []*domain.Topic) map[uuid.UUID]string {
	byID := make(map[uuid.UUID]*domain.Topic, len(topics))
	for _, t := range topics {
		byID[t.ID] = t
	}

	paths := make(map[uuid.UUID]string, len(topics))
	var pathOf func(t *domain.Topic, depth int) string
	pathOf = func(t *domain.Topic, depth int) string {
		if p, ok := paths[t.ID]; ok {
			return p
		}
		p := t.Name
		if t.ParentID != nil && depth < len(topics) {
			if parent, ok := byID[*t.ParentID]; ok {
				p = pathOf(parent, depth+1) + "/" + t.Name
			}
		}
		paths[t.ID] = p
		return p
	}
	for _, t := range topics {
		pathOf(t, 0)
	}
	return paths
}

func parseCardIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatDue(due, now time.Time) string {
	if !due.After(now) {
		return "now"
	}
	return due.Local().Format(timeLayout)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
