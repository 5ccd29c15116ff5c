package retention

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/events"
)

// Cached memoizes card summaries and topic rates of an underlying
// Calculator. Register it with the event emitter so that reviews, moves,
// deletions and restores invalidate the affected entries.
//
// Every invalidation bumps a generation for the key. A fetch that started
// before an invalidation of its key is returned but not stored.
type Cached struct {
	next   Calculator
	logger *slog.Logger

	mu         sync.RWMutex
	summaries  map[uuid.UUID]Summary
	topics     map[uuid.UUID]float64
	cardGens   map[uuid.UUID]uint64
	topicGens  map[uuid.UUID]uint64
	resetEpoch uint64
}

type generation struct {
	key   uint64
	epoch uint64
}

var (
	_ Calculator          = (*Cached)(nil)
	_ events.EventHandler = (*Cached)(nil)
)

// NewCached wraps next with a cache.
func NewCached(next Calculator, logger *slog.Logger) *Cached {
	if next == nil {
		panic("calculator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		next:      next,
		logger:    logger.With(slog.String("component", "retention_cache")),
		summaries: make(map[uuid.UUID]Summary),
		topics:    make(map[uuid.UUID]float64),
		cardGens:  make(map[uuid.UUID]uint64),
		topicGens: make(map[uuid.UUID]uint64),
	}
}

// RetentionRate implements Calculator.
func (c *Cached) RetentionRate(ctx context.Context, cardID uuid.UUID) (float64, error) {
	summary, err := c.Summary(ctx, cardID)
	if err != nil {
		return 0, err
	}
	return summary.Rate, nil
}

// Summary implements Calculator.
func (c *Cached) Summary(ctx context.Context, cardID uuid.UUID) (Summary, error) {
	c.mu.RLock()
	summary, ok := c.summaries[cardID]
	gen := generation{key: c.cardGens[cardID], epoch: c.resetEpoch}
	c.mu.RUnlock()
	if ok {
		return summary, nil
	}

	summary, err := c.next.Summary(ctx, cardID)
	if err != nil {
		return Summary{}, err
	}

	c.mu.Lock()
	if gen == (generation{key: c.cardGens[cardID], epoch: c.resetEpoch}) {
		c.summaries[cardID] = summary
	}
	c.mu.Unlock()
	return summary, nil
}

// TopicRetentionRate implements Calculator.
func (c *Cached) TopicRetentionRate(ctx context.Context, topicID uuid.UUID) (float64, error) {
	c.mu.RLock()
	rate, ok := c.topics[topicID]
	gen := generation{key: c.topicGens[topicID], epoch: c.resetEpoch}
	c.mu.RUnlock()
	if ok {
		return rate, nil
	}

	rate, err := c.next.TopicRetentionRate(ctx, topicID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if gen == (generation{key: c.topicGens[topicID], epoch: c.resetEpoch}) {
		c.topics[topicID] = rate
	}
	c.mu.Unlock()
	return rate, nil
}

// Rates implements Calculator. Bulk lookups are not cached.
func (c *Cached) Rates(ctx context.Context, topicIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	return c.next.Rates(ctx, topicIDs)
}

// Invalidate drops cached entries for the given cards and topics.
func (c *Cached) Invalidate(cardIDs, topicIDs []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range cardIDs {
		delete(c.summaries, id)
		c.cardGens[id]++
	}
	for _, id := range topicIDs {
		delete(c.topics, id)
		c.topicGens[id]++
	}
}

// Reset drops every cached entry.
func (c *Cached) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = make(map[uuid.UUID]Summary)
	c.topics = make(map[uuid.UUID]float64)
	c.cardGens = make(map[uuid.UUID]uint64)
	c.topicGens = make(map[uuid.UUID]uint64)
	c.resetEpoch++
}

// HandleEvent implements events.EventHandler.
func (c *Cached) HandleEvent(_ context.Context, event *events.Event) error {
	switch event.Type {
	case events.TypeReviewCommitted:
		var p events.ReviewCommitted
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		c.Invalidate([]uuid.UUID{p.CardID}, []uuid.UUID{p.TopicID})

	case events.TypeCardDeleted:
		var p events.CardDeleted
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		c.Invalidate([]uuid.UUID{p.CardID}, []uuid.UUID{p.TopicID})

	case events.TypeCardMoved:
		var p events.CardMoved
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		c.Invalidate(p.CardIDs, append(p.FromTopicIDs, p.ToTopicID))

	case events.TypeBackupRestored:
		c.Reset()

	default:
		return nil
	}

	c.logger.Debug("retention cache invalidated", slog.String("event_type", event.Type))
	return nil
}
