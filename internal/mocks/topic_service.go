package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/stretchr/testify/mock"
)

// TestifyMockTopicService is a mock of service.TopicService for use with testify/mock
type TestifyMockTopicService struct {
	mock.Mock
}

var _ service.TopicService = (*TestifyMockTopicService)(nil)

func (m *TestifyMockTopicService) topic(args mock.Arguments) (*domain.Topic, error) {
	if topic, ok := args.Get(0).(*domain.Topic); ok {
		return topic, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of service.TopicService.Create
func (m *TestifyMockTopicService) Create(ctx context.Context, name string, parentID *uuid.UUID) (*domain.Topic, error) {
	return m.topic(m.Called(ctx, name, parentID))
}

// Get is a mock implementation of service.TopicService.Get
func (m *TestifyMockTopicService) Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	return m.topic(m.Called(ctx, id))
}

// List is a mock implementation of service.TopicService.List
func (m *TestifyMockTopicService) List(ctx context.Context) ([]*domain.Topic, error) {
	args := m.Called(ctx)
	if topics, ok := args.Get(0).([]*domain.Topic); ok {
		return topics, args.Error(1)
	}
	return nil, args.Error(1)
}

// Tree is a mock implementation of service.TopicService.Tree
func (m *TestifyMockTopicService) Tree(ctx context.Context) ([]*service.TopicNode, error) {
	args := m.Called(ctx)
	if nodes, ok := args.Get(0).([]*service.TopicNode); ok {
		return nodes, args.Error(1)
	}
	return nil, args.Error(1)
}

// Rename is a mock implementation of service.TopicService.Rename
func (m *TestifyMockTopicService) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Topic, error) {
	return m.topic(m.Called(ctx, id, name))
}

// Reparent is a mock implementation of service.TopicService.Reparent
func (m *TestifyMockTopicService) Reparent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (*domain.Topic, error) {
	return m.topic(m.Called(ctx, id, parentID))
}

// Delete is a mock implementation of service.TopicService.Delete
func (m *TestifyMockTopicService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// EnsurePath is a mock implementation of service.TopicService.EnsurePath
func (m *TestifyMockTopicService) EnsurePath(ctx context.Context, path string) (*domain.Topic, error) {
	return m.topic(m.Called(ctx, path))
}
