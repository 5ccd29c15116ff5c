package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/retention"
)

// MockCalculator implements retention.Calculator with fixed answers.
type MockCalculator struct {
	// CardRates and TopicRates answer RetentionRate and TopicRetentionRate.
	// Missing entries yield 0.
	CardRates  map[uuid.UUID]float64
	TopicRates map[uuid.UUID]float64
	Err        error
}

var _ retention.Calculator = (*MockCalculator)(nil)

// RetentionRate implements retention.Calculator
func (m *MockCalculator) RetentionRate(_ context.Context, cardID uuid.UUID) (float64, error) {
	return m.CardRates[cardID], m.Err
}

// TopicRetentionRate implements retention.Calculator
func (m *MockCalculator) TopicRetentionRate(_ context.Context, topicID uuid.UUID) (float64, error) {
	return m.TopicRates[topicID], m.Err
}

// Summary implements retention.Calculator. Only Rate is populated.
func (m *MockCalculator) Summary(_ context.Context, cardID uuid.UUID) (retention.Summary, error) {
	if m.Err != nil {
		return retention.Summary{}, m.Err
	}
	return retention.Summary{CardID: cardID, Rate: m.CardRates[cardID]}, nil
}

// Rates implements retention.Calculator by returning CardRates.
func (m *MockCalculator) Rates(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.CardRates, nil
}
