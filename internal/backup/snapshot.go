package backup

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// ErrInvalidSnapshot is returned when a snapshot fails validation.
var ErrInvalidSnapshot = fmt.Errorf("%w: invalid backup snapshot", domain.ErrValidation)

// Snapshot is the logical content of a backup.
type Snapshot struct {
	Version    int           `json:"version" yaml:"version"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Topics     []TopicEntry  `json:"topics" yaml:"topics"`
	Cards      []CardEntry   `json:"cards" yaml:"cards"`
	Reviews    []ReviewEntry `json:"reviews" yaml:"reviews"`
}

// TopicEntry is a topic as stored in a snapshot.
type TopicEntry struct {
	ID        uuid.UUID  `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// CardEntry is a card and its schedule as stored in a snapshot.
type CardEntry struct {
	ID        uuid.UUID     `json:"id" yaml:"id"`
	TopicID   uuid.UUID     `json:"topic_id" yaml:"topic_id"`
	Front     string        `json:"front" yaml:"front"`
	Back      string        `json:"back" yaml:"back"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"updated_at"`
	Schedule  ScheduleEntry `json:"schedule" yaml:"schedule"`
}

// ScheduleEntry mirrors domain.ScheduleState.
type ScheduleEntry struct {
	DueAt                time.Time `json:"due_at" yaml:"due_at"`
	IntervalDays         float64   `json:"interval_days" yaml:"interval_days"`
	Easiness             float64   `json:"easiness" yaml:"easiness"`
	ConsecutiveSuccesses int       `json:"consecutive_successes" yaml:"consecutive_successes"`
	LastReviewedAt       time.Time `json:"last_reviewed_at" yaml:"last_reviewed_at"`
}

// ReviewEntry is one review record as stored in a snapshot.
type ReviewEntry struct {
	ID             uuid.UUID `json:"id" yaml:"id"`
	CardID         uuid.UUID `json:"card_id" yaml:"card_id"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Success        bool      `json:"success" yaml:"success"`
	IntervalBefore float64   `json:"interval_before" yaml:"interval_before"`
	IntervalAfter  float64   `json:"interval_after" yaml:"interval_after"`
}

// NewSnapshot builds a snapshot from domain objects.
func NewSnapshot(topics []*domain.Topic, cards []*domain.Card, reviews []*domain.ReviewRecord, exportedAt time.Time) *Snapshot {
	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: exportedAt.UTC(),
		Topics:     make([]TopicEntry, 0, len(topics)),
		Cards:      make([]CardEntry, 0, len(cards)),
		Reviews:    make([]ReviewEntry, 0, len(reviews)),
	}
	for _, t := range topics {
		snap.Topics = append(snap.Topics, TopicEntry{
			ID:        t.ID,
			Name:      t.Name,
			ParentID:  t.ParentID,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, c := range cards {
		snap.Cards = append(snap.Cards, CardEntry{
			ID:        c.ID,
			TopicID:   c.TopicID,
			Front:     c.Front,
			Back:      c.Back,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Schedule: ScheduleEntry{
				DueAt:                c.Schedule.DueAt,
				IntervalDays:         c.Schedule.IntervalDays,
				Easiness:             c.Schedule.Easiness,
				ConsecutiveSuccesses: c.Schedule.ConsecutiveSuccesses,
				LastReviewedAt:       c.Schedule.LastReviewedAt,
			},
		})
	}
	for _, r := range reviews {
		snap.Reviews = append(snap.Reviews, ReviewEntry{
			ID:             r.ID,
			CardID:         r.CardID,
			Timestamp:      r.Timestamp,
			Success:        r.Success,
			IntervalBefore: r.IntervalBefore,
			IntervalAfter:  r.IntervalAfter,
		})
	}
	return snap
}

// Topic converts the entry into a domain topic.
func (e TopicEntry) Topic() *domain.Topic {
	return &domain.Topic{ID: e.ID, Name: e.Name, ParentID: e.ParentID, CreatedAt: e.CreatedAt.UTC()}
}

// Card converts the entry into a domain card.
func (e CardEntry) Card() *domain.Card {
	return &domain.Card{
		ID:        e.ID,
		TopicID:   e.TopicID,
		Front:     e.Front,
		Back:      e.Back,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
		Schedule: domain.ScheduleState{
			DueAt:                e.Schedule.DueAt.UTC(),
			IntervalDays:         e.Schedule.IntervalDays,
			Easiness:             e.Schedule.Easiness,
			ConsecutiveSuccesses: e.Schedule.ConsecutiveSuccesses,
			LastReviewedAt:       e.Schedule.LastReviewedAt.UTC(),
		},
	}
}

// Record converts the entry into a domain review record.
func (e ReviewEntry) Record() *domain.ReviewRecord {
	return &domain.ReviewRecord{
		ID:             e.ID,
		CardID:         e.CardID,
		Timestamp:      e.Timestamp.UTC(),
		Success:        e.Success,
		IntervalBefore: e.IntervalBefore,
		IntervalAfter:  e.IntervalAfter,
	}
}

// Validate checks the snapshot for structural problems: unknown versions,
// invalid or duplicate entities, dangling references, topic cycles and review
// timestamps that do not strictly increase per card.
func (s *Snapshot) Validate() error {
	if s.Version < 1 || s.Version > SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}

	topics := make(map[uuid.UUID]TopicEntry, len(s.Topics))
	for _, t := range s.Topics {
		if err := t.Topic().Validate(); err != nil {
			return fmt.Errorf("%w: topic %s: %w", ErrInvalidSnapshot, t.ID, err)
		}
		if _, dup := topics[t.ID]; dup {
			return fmt.Errorf("%w: duplicate topic %s", ErrInvalidSnapshot, t.ID)
		}
		topics[t.ID] = t
	}
	if _, err := s.TopicsInOrder(); err != nil {
		return err
	}

	cards := make(map[uuid.UUID]struct{}, len(s.Cards))
	for _, c := range s.Cards {
		if err := c.Card().Validate(); err != nil {
			return fmt.Errorf("%w: card %s: %w", ErrInvalidSnapshot, c.ID, err)
		}
		if _, dup := cards[c.ID]; dup {
			return fmt.Errorf("%w: duplicate card %s", ErrInvalidSnapshot, c.ID)
		}
		if _, ok := topics[c.TopicID]; !ok {
			return fmt.Errorf("%w: card %s references unknown topic %s", ErrInvalidSnapshot, c.ID, c.TopicID)
		}
		cards[c.ID] = struct{}{}
	}

	reviews := make(map[uuid.UUID]struct{}, len(s.Reviews))
	latest := make(map[uuid.UUID]time.Time)
	for _, r := range s.Reviews {
		if err := r.Record().Validate(); err != nil {
			return fmt.Errorf("%w: review %s: %w", ErrInvalidSnapshot, r.ID, err)
		}
		if _, dup := reviews[r.ID]; dup {
			return fmt.Errorf("%w: duplicate review %s", ErrInvalidSnapshot, r.ID)
		}
		if _, ok := cards[r.CardID]; !ok {
			return fmt.Errorf("%w: review %s references unknown card %s", ErrInvalidSnapshot, r.ID, r.CardID)
		}
		if prev, ok := latest[r.CardID]; ok && !r.Timestamp.After(prev) {
			return fmt.Errorf("%w: reviews of card %s are not in increasing time order", ErrInvalidSnapshot, r.CardID)
		}
		reviews[r.ID] = struct{}{}
		latest[r.CardID] = r.Timestamp
	}
	return nil
}

var errTopicCycle = errors.New("topic hierarchy contains a cycle")

// TopicsInOrder returns the topics ordered so that every parent precedes its
// children.
func (s *Snapshot) TopicsInOrder() ([]TopicEntry, error) {
	byID := make(map[uuid.UUID]TopicEntry, len(s.Topics))
	for _, t := range s.Topics {
		byID[t.ID] = t
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uuid.UUID]int, len(s.Topics))
	ordered := make([]TopicEntry, 0, len(s.Topics))

	var visit func(t TopicEntry) error
	visit = func(t TopicEntry) error {
		switch state[t.ID] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %w at %s", ErrInvalidSnapshot, errTopicCycle, t.ID)
		}
		state[t.ID] = visiting
		if t.ParentID != nil {
			parent, ok := byID[*t.ParentID]
			if !ok {
				return fmt.Errorf("%w: topic %s references unknown parent %s", ErrInvalidSnapshot, t.ID, *t.ParentID)
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[t.ID] = done
		ordered = append(ordered, t)
		return nil
	}

	for _, t := range s.Topics {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
