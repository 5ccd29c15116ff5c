package review

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
)

// Progress summarizes how far a session has got.
type Progress struct {
	Reviewed  int `json:"reviewed"`
	Successes int `json:"successes"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// Session is one pass over the cards that were due when it started. Cards
// leave the queue when submitted; skipped cards go to the back.
// A Session is safe for concurrent use.
type Session struct {
	id        uuid.UUID
	query     service.DueQuery
	startedAt time.Time
	reviewer  Service
	retention retention.Calculator

	mu         sync.Mutex
	lastActive time.Time
	queue      []*domain.Card
	inFlight  map[uuid.UUID]struct{}
	reviewed  int
	successes int
}

func newSession(query service.DueQuery, cards []*domain.Card, reviewer Service, calc retention.Calculator, startedAt time.Time) *Session {
	return &Session{
		id:        domain.NewID(),
		query:     query,
		startedAt:  startedAt,
		reviewer:   reviewer,
		retention:  calc,
		lastActive: startedAt,
		queue:      cards,
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Query returns the due query the session was started with.
func (s *Session) Query() service.DueQuery { return s.query }

// StartedAt returns when the session was started.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Cards returns copies of the queued cards in presentation order.
func (s *Session) Cards() []*domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCards(s.queue)
}

// Next returns a copy of the card at the front of the queue, or false when
// the session is finished.
func (s *Session) Next() (*domain.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	c := *s.queue[0]
	return &c, true
}

// Progress reports the session counters.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Reviewed:  s.reviewed,
		Successes: s.successes,
		Total:     s.reviewed + len(s.queue),
		Remaining: len(s.queue),
	}
}

// Done reports whether every card has been submitted or removed.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0
}

// Submit commits a review for a queued card and removes it from the queue.
// Returns ErrCardNotInSession if the card is not queued. On failure the card
// stays queued. The commit runs detached from ctx: if ctx ends first, Submit
// returns ctx.Err() and the session is updated once the commit finishes.
func (s *Session) Submit(ctx context.Context, cardID uuid.UUID, success bool) (*Outcome, error) {
	s.mu.Lock()
	if s.indexOf(cardID) < 0 {
		s.mu.Unlock()
		return nil, ErrCardNotInSession
	}
	if _, busy := s.inFlight[cardID]; busy {
		s.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	s.inFlight[cardID] = struct{}{}
	s.mu.Unlock()

	type result struct {
		outcome *Outcome
		err     error
	}
	done := make(chan result, 1)
	commitCtx := context.WithoutCancel(ctx)
	go func() {
		outcome, err := s.reviewer.Submit(commitCtx, cardID, success)
		s.finish(cardID, success, err)
		done <- result{outcome: outcome, err: err}
	}()

	select {
	case r := <-done:
		return r.outcome, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) finish(cardID uuid.UUID, success bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, cardID)
	if err != nil {
		return
	}
	if i := s.indexOf(cardID); i >= 0 {
		s.queue = slices.Delete(s.queue, i, i+1)
	}
	s.reviewed++
	if success {
		s.successes++
	}
}

// Skip moves a queued card to the back of the queue.
func (s *Session) Skip(cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(cardID)
	if i < 0 {
		return ErrCardNotInSession
	}
	card := s.queue[i]
	s.queue = append(slices.Delete(s.queue, i, i+1), card)
	return nil
}

// Remove drops a card from the queue, for example after it was deleted.
// It reports whether the card was queued.
func (s *Session) Remove(cardID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(cardID)
	if i < 0 {
		return false
	}
	s.queue = slices.Delete(s.queue, i, i+1)
	return true
}

// RetentionRate returns the card's retention rate from its full history.
func (s *Session) RetentionRate(ctx context.Context, cardID uuid.UUID) (float64, error) {
	return s.retention.RetentionRate(ctx, cardID)
}

// touch records activity at t.
func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastActive) {
		s.lastActive = t
	}
}

// idle reports whether the session has seen no activity for ttl and has no
// commit pending.
func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight) == 0 && now.Sub(s.lastActive) >= ttl
}

func (s *Session) indexOf(cardID uuid.UUID) int {
	return slices.IndexFunc(s.queue, func(c *domain.Card) bool { return c.ID == cardID })
}

func copyCards(cards []*domain.Card) []*domain.Card {
	out := make([]*domain.Card, len(cards))
	for i, c := range cards {
		cp := *c
		out[i] = &cp
	}
	return out
}
