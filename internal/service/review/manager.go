package review

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/events"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/retention"
	"github.com/phrazzld/lazycard/internal/service"
)

// DueSource lists due cards in deterministic order.
type DueSource interface {
	DueCards(ctx context.Context, q service.DueQuery) ([]*domain.Card, error)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithShuffle enables or disables random presentation order.
func WithShuffle(enabled bool) ManagerOption {
	return func(m *Manager) { m.shuffle = enabled }
}

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) ManagerOption {
	return func(m *Manager) { m.rng = r }
}

// WithSessionClock sets the clock that defines "now" for new sessions.
func WithSessionClock(clock domain.Clock) ManagerOption {
	return func(m *Manager) { m.now = clock }
}

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = time.Hour

// WithSessionTTL sets how long a session may stay idle before it is dropped.
// A non-positive ttl keeps sessions until they are ended.
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// Manager starts review sessions and keeps them by ID. Sessions idle for
// longer than the TTL are dropped when the next session starts or when they
// are looked up.
type Manager struct {
	due       DueSource
	reviewer  Service
	retention retention.Calculator
	shuffle   bool
	ttl       time.Duration
	now       domain.Clock
	logger    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

var _ events.EventHandler = (*Manager)(nil)

// NewManager creates a session manager.
func NewManager(due DueSource, reviewer Service, calc retention.Calculator, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if due == nil {
		panic("due source cannot be nil")
	}
	if reviewer == nil {
		panic("review service cannot be nil")
	}
	if calc == nil {
		panic("retention calculator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		due:       due,
		reviewer:  reviewer,
		retention: calc,
		shuffle:   true,
		ttl:       DefaultSessionTTL,
		now:       domain.SystemClock,
		logger:    logger.With(slog.String("component", "session_manager")),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sessions:  make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session over the cards due now, optionally scoped to a topic.
// The due cards are shuffled into a private copy; the due ordering itself is
// left untouched. A session with no due cards is valid and already done.
func (m *Manager) Start(ctx context.Context, topicID *uuid.UUID, includeSubtopics bool) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	q := service.DueQuery{TopicID: topicID, IncludeSubtopics: includeSubtopics, AsOf: m.now()}
	cards, err := m.due.DueCards(ctx, q)
	if err != nil {
		return nil, err
	}

	queue := copyCards(cards)
	if m.shuffle {
		m.rngMu.Lock()
		m.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
		m.rngMu.Unlock()
	}

	session := newSession(q, queue, m.reviewer, m.retention, q.AsOf)

	m.mu.Lock()
	expired := m.pruneLocked(q.AsOf)
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	if expired > 0 {
		log.Debug("expired idle review sessions", slog.Int("count", expired))
	}

	log.Info("review session started",
		slog.String("session_id", session.ID().String()),
		slog.Int("cards", len(queue)))
	return session, nil
}

// Get returns a session by ID and marks it active. An expired session is
// dropped and reported as not found.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.ttl > 0 && session.idle(now, m.ttl) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	session.touch(now)
	return session, nil
}

// Prune drops every session idle for longer than the TTL and returns how
// many were dropped.
func (m *Manager) Prune() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(now)
}

func (m *Manager) pruneLocked(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	expired := 0
	for id, s := range m.sessions {
		if s.idle(now, m.ttl) {
			delete(m.sessions, id)
			expired++
		}
	}
	return expired
}

// End forgets a session.
func (m *Manager) End(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RemoveCard drops a card from every open session.
func (m *Manager) RemoveCard(cardID uuid.UUID) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Remove(cardID)
	}
}

// HandleEvent implements events.EventHandler. Deleted cards leave every
// session and a restored backup invalidates all open sessions.
func (m *Manager) HandleEvent(_ context.Context, event *events.Event) error {
	switch event.Type {
	case events.TypeCardDeleted:
		var p events.CardDeleted
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		m.RemoveCard(p.CardID)
	case events.TypeBackupRestored:
		m.mu.Lock()
		m.sessions = make(map[uuid.UUID]*Session)
		m.mu.Unlock()
	}
	return nil
}
