package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/lazycard/internal/domain"
)

// Default scheduler constants. They follow the SM-2 family: a successful
// review is graded with quality 4, which leaves easiness unchanged.
const (
	DefaultInitialEasiness = 2.5
	DefaultMinEasiness     = 1.3
	DefaultMinIntervalDays = 1.0
	DefaultMaxIntervalDays = 36500.0
	DefaultSuccessQuality  = 4
	DefaultFailurePenalty  = 0.2

	// MaxIntervalLimitDays bounds the configurable ceiling. Due times are
	// stored as unix nanoseconds, which end in the year 2262.
	MaxIntervalLimitDays = 73000.0
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// Params defines all configurable parameters for the scheduler.
type Params struct {
	// InitialEasiness is the easiness of a newly created card.
	InitialEasiness float64
	// MinEasiness is the easiness floor.
	MinEasiness float64
	// MinIntervalDays is both the interval of a new card and the interval
	// a card resets to after a failed review.
	MinIntervalDays float64
	// MaxIntervalDays caps interval growth.
	MaxIntervalDays float64
	// SuccessQuality is the SM-2 quality (0-5) a successful review maps to.
	SuccessQuality int
	// FailurePenalty is subtracted from easiness on a failed review.
	FailurePenalty float64
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero fields keep their defaults.
type ParamsConfig struct {
	InitialEasiness float64
	MinEasiness     float64
	MinIntervalDays float64
	MaxIntervalDays float64
	SuccessQuality  int
	FailurePenalty  float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		InitialEasiness: DefaultInitialEasiness,
		MinEasiness:     DefaultMinEasiness,
		MinIntervalDays: DefaultMinIntervalDays,
		MaxIntervalDays: DefaultMaxIntervalDays,
		SuccessQuality:  DefaultSuccessQuality,
		FailurePenalty:  DefaultFailurePenalty,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.InitialEasiness > 0 {
		params.InitialEasiness = config.InitialEasiness
	}
	if config.MinEasiness > 0 {
		params.MinEasiness = config.MinEasiness
	}
	if config.MinIntervalDays > 0 {
		params.MinIntervalDays = config.MinIntervalDays
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.SuccessQuality > 0 {
		params.SuccessQuality = config.SuccessQuality
	}
	if config.FailurePenalty > 0 {
		params.FailurePenalty = config.FailurePenalty
	}

	return params
}

// Validate reports parameter combinations the scheduler cannot honor.
func (p *Params) Validate() error {
	switch {
	case !isFinite(p.MinEasiness) || p.MinEasiness < 1:
		return fmt.Errorf("%w: easiness floor must be at least 1", ErrInvalidParams)
	case !isFinite(p.InitialEasiness) || p.InitialEasiness < p.MinEasiness:
		return fmt.Errorf("%w: initial easiness below floor", ErrInvalidParams)
	case !isFinite(p.MinIntervalDays) || p.MinIntervalDays <= 0:
		return fmt.Errorf("%w: minimum interval must be positive", ErrInvalidParams)
	case !isFinite(p.MaxIntervalDays) || p.MaxIntervalDays < p.MinIntervalDays:
		return fmt.Errorf("%w: maximum interval below minimum", ErrInvalidParams)
	case p.MaxIntervalDays > MaxIntervalLimitDays:
		return fmt.Errorf("%w: maximum interval above %g days", ErrInvalidParams, MaxIntervalLimitDays)
	case p.SuccessQuality < 3 || p.SuccessQuality > 5:
		return fmt.Errorf("%w: success quality must be between 3 and 5", ErrInvalidParams)
	case !isFinite(p.FailurePenalty) || p.FailurePenalty < 0:
		return fmt.Errorf("%w: failure penalty cannot be negative", ErrInvalidParams)
	}
	return nil
}

// InitialState is the schedule of a card created at createdAt: due
// immediately, at the minimum interval and initial easiness.
func (p *Params) InitialState(createdAt time.Time) domain.ScheduleState {
	return domain.ScheduleState{
		DueAt:        createdAt.UTC(),
		IntervalDays: p.MinIntervalDays,
		Easiness:     p.InitialEasiness,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
