package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
)

// MockCardService implements service.CardService for testing
type MockCardService struct {
	CreateFn   func(ctx context.Context, topicID uuid.UUID, front, back string) (*domain.Card, error)
	GetFn      func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	UpdateFn   func(ctx context.Context, id uuid.UUID, front, back string) (*domain.Card, error)
	DeleteFn   func(ctx context.Context, id uuid.UUID) error
	MoveFn     func(ctx context.Context, id, topicID uuid.UUID) (*domain.Card, error)
	BulkMoveFn func(ctx context.Context, ids []uuid.UUID, topicID uuid.UUID) (*service.BulkMoveResult, error)
	ListFn     func(ctx context.Context, opts service.ListOptions) ([]*domain.Card, error)

	// Default return values
	Card         *domain.Card
	Cards        []*domain.Card
	DefaultError error

	mu        sync.Mutex
	listCalls []service.ListOptions
}

var _ service.CardService = (*MockCardService)(nil)

// Create implements service.CardService
func (m *MockCardService) Create(ctx context.Context, topicID uuid.UUID, front, back string) (*domain.Card, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, topicID, front, back)
	}
	return m.Card, m.DefaultError
}

// Get implements service.CardService
func (m *MockCardService) Get(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return m.Card, m.DefaultError
}

// Update implements service.CardService
func (m *MockCardService) Update(ctx context.Context, id uuid.UUID, front, back string) (*domain.Card, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, front, back)
	}
	return m.Card, m.DefaultError
}

// Delete implements service.CardService
func (m *MockCardService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.DefaultError
}

// Move implements service.CardService
func (m *MockCardService) Move(ctx context.Context, id, topicID uuid.UUID) (*domain.Card, error) {
	if m.MoveFn != nil {
		return m.MoveFn(ctx, id, topicID)
	}
	return m.Card, m.DefaultError
}

// BulkMove implements service.CardService
func (m *MockCardService) BulkMove(ctx context.Context, ids []uuid.UUID, topicID uuid.UUID) (*service.BulkMoveResult, error) {
	if m.BulkMoveFn != nil {
		return m.BulkMoveFn(ctx, ids, topicID)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &service.BulkMoveResult{Moved: ids, Skipped: []uuid.UUID{}}, nil
}

// List implements service.CardService. Calls are recorded for ListCalls.
func (m *MockCardService) List(ctx context.Context, opts service.ListOptions) ([]*domain.Card, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, opts)
	m.mu.Unlock()

	if m.ListFn != nil {
		return m.ListFn(ctx, opts)
	}
	return m.Cards, m.DefaultError
}

// ListCalls returns the options of every List call so far.
func (m *MockCardService) ListCalls() []service.ListOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.ListOptions(nil), m.listCalls...)
}
