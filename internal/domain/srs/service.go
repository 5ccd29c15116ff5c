package srs

import (
	"time"

	"github.com/phrazzld/lazycard/internal/domain"
)

// Service defines the interface for scheduler operations.
type Service interface {
	// NextState computes the schedule after one review. It never fails and
	// never modifies its input.
	NextState(current domain.ScheduleState, success bool, now time.Time) domain.ScheduleState

	// InitialState is the schedule of a card created at createdAt.
	InitialState(createdAt time.Time) domain.ScheduleState

	// Normalize clamps a loaded schedule into the valid domain and reports
	// each corrected field. anchor is the card creation time, used only for
	// never-reviewed cards.
	Normalize(state domain.ScheduleState, anchor time.Time) (domain.ScheduleState, []Violation)

	// Params returns a copy of the active parameters.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler with custom parameters.
// It returns an error if the parameters are invalid.
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := *params
	return &defaultService{
		params: &p,
	}, nil
}

// NextState implements Service.
func (s *defaultService) NextState(current domain.ScheduleState, success bool, now time.Time) domain.ScheduleState {
	return nextState(current, success, now, s.params)
}

// InitialState implements Service.
func (s *defaultService) InitialState(createdAt time.Time) domain.ScheduleState {
	return s.params.InitialState(createdAt)
}

// Normalize implements Service.
func (s *defaultService) Normalize(state domain.ScheduleState, anchor time.Time) (domain.ScheduleState, []Violation) {
	return normalize(state, anchor, s.params)
}

// Params implements Service.
func (s *defaultService) Params() Params {
	return *s.params
}
