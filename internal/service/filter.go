package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/store"
)

// topicFilter builds the card filter for an optional topic. A topic that
// does not exist yields store.ErrTopicNotFound.
func topicFilter(ctx context.Context, topics store.TopicStore, topicID *uuid.UUID, includeSubtopics bool) (store.CardFilter, error) {
	if topicID == nil {
		return store.CardFilter{}, nil
	}

	if !includeSubtopics {
		if _, err := topics.GetByID(ctx, *topicID); err != nil {
			return store.CardFilter{}, err
		}
		return store.CardFilter{TopicIDs: []uuid.UUID{*topicID}}, nil
	}

	ids, err := topics.Descendants(ctx, *topicID)
	if err != nil {
		return store.CardFilter{}, err
	}
	if len(ids) == 0 {
		return store.CardFilter{}, store.ErrTopicNotFound
	}
	return store.CardFilter{TopicIDs: ids}, nil
}
