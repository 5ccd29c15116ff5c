package srs

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func day(n float64) time.Time {
	return t0.Add(domain.Days(n))
}

func TestCalculateNewEasiness(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		success  bool
		quality  int
		expected float64
	}{
		{"success at quality 4 keeps easiness", 2.5, true, 4, 2.5},
		{"success at quality 5 raises easiness", 2.5, true, 5, 2.6},
		{"success at quality 3 lowers easiness", 2.5, true, 3, 2.36},
		{"failure applies penalty", 2.5, false, 4, 2.3},
		{"failure clamps at floor", 1.4, false, 4, 1.3},
		{"corrupt easiness recovers to floor", math.NaN(), true, 4, 1.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := *params
			p.SuccessQuality = tc.quality
			assert.InDelta(t, tc.expected, calculateNewEasiness(tc.current, tc.success, &p), 1e-9)
		})
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, 2.5, calculateNewInterval(1, 2.5, true, params))
	assert.Equal(t, 1.0, calculateNewInterval(40, 2.5, false, params))
	assert.Equal(t, params.MaxIntervalDays, calculateNewInterval(30000, 2.5, true, params))
	assert.Equal(t, params.MinIntervalDays, calculateNewInterval(math.NaN(), 2.5, true, params))
}

// TestNextStateScenario walks the documented example: a card created on day 0
// is reviewed successfully on day 1 and fails on day 3.5.
func TestNextStateScenario(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	created := svc.InitialState(t0)
	assert.Equal(t, t0, created.DueAt)
	assert.Equal(t, 1.0, created.IntervalDays)
	assert.Equal(t, 2.5, created.Easiness)
	assert.False(t, created.Reviewed())

	afterSuccess := svc.NextState(created, true, day(1))
	assert.Equal(t, 2.5, afterSuccess.IntervalDays)
	assert.Equal(t, 2.5, afterSuccess.Easiness)
	assert.Equal(t, 1, afterSuccess.ConsecutiveSuccesses)
	assert.Equal(t, day(3.5), afterSuccess.DueAt)
	assert.Equal(t, day(1), afterSuccess.LastReviewedAt)

	afterFailure := svc.NextState(afterSuccess, false, day(3.5))
	assert.InDelta(t, 2.3, afterFailure.Easiness, 1e-9)
	assert.Equal(t, 1.0, afterFailure.IntervalDays)
	assert.Equal(t, 0, afterFailure.ConsecutiveSuccesses)
	assert.Equal(t, day(4.5), afterFailure.DueAt)
}

func TestNextStateDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	in := svc.InitialState(t0)
	copyOfIn := in

	_ = svc.NextState(in, true, day(1))
	_ = svc.NextState(in, false, day(1))

	assert.Equal(t, copyOfIn, in)
}

// TestNextStateProperties checks the scheduler invariants over random
// review sequences of length 0 to 1000.
func TestNextStateProperties(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	params := svc.Params()
	rng := rand.New(rand.NewPCG(42, 7))

	for run := 0; run < 50; run++ {
		state := svc.InitialState(t0)
		now := t0
		n := rng.IntN(1001)

		for i := 0; i < n; i++ {
			now = now.Add(time.Duration(rng.IntN(72)+1) * time.Hour)
			success := rng.IntN(3) != 0
			next := svc.NextState(state, success, now)

			require.GreaterOrEqual(t, next.Easiness, params.MinEasiness)
			require.GreaterOrEqual(t, next.IntervalDays, params.MinIntervalDays)
			require.LessOrEqual(t, next.IntervalDays, params.MaxIntervalDays)
			require.True(t, next.DueAt.After(now), "dueAt must be in the future")
			require.Equal(t, now, next.LastReviewedAt)

			if success {
				require.GreaterOrEqual(t, next.IntervalDays, math.Min(state.IntervalDays, params.MaxIntervalDays))
				require.Equal(t, state.ConsecutiveSuccesses+1, next.ConsecutiveSuccesses)
			} else {
				require.Equal(t, params.MinIntervalDays, next.IntervalDays)
				require.Zero(t, next.ConsecutiveSuccesses)
			}

			state = next
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	t.Run("valid reviewed state is untouched", func(t *testing.T) {
		state := svc.NextState(svc.InitialState(t0), true, day(1))
		out, violations := svc.Normalize(state, t0)
		assert.Empty(t, violations)
		assert.Equal(t, state, out)
	})

	t.Run("valid new state is untouched", func(t *testing.T) {
		state := svc.InitialState(t0)
		out, violations := svc.Normalize(state, t0)
		assert.Empty(t, violations)
		assert.Equal(t, state, out)
	})

	t.Run("corrupt fields are clamped", func(t *testing.T) {
		state := domain.ScheduleState{
			DueAt:                day(100),
			IntervalDays:         -3,
			Easiness:             0.5,
			ConsecutiveSuccesses: -2,
			LastReviewedAt:       day(1),
		}
		out, violations := svc.Normalize(state, t0)

		assert.Len(t, violations, 4)
		assert.Equal(t, 1.3, out.Easiness)
		assert.Equal(t, 1.0, out.IntervalDays)
		assert.Equal(t, 0, out.ConsecutiveSuccesses)
		assert.Equal(t, day(2), out.DueAt, "due date is recomputed from the last review")
	})

	t.Run("infinite values are clamped", func(t *testing.T) {
		state := domain.ScheduleState{
			DueAt:          day(1 + DefaultMaxIntervalDays),
			IntervalDays:   math.Inf(1),
			Easiness:       math.Inf(1),
			LastReviewedAt: day(1),
		}
		out, violations := svc.Normalize(state, t0)

		require.Len(t, violations, 2)
		assert.Equal(t, "easiness", violations[0].Field)
		assert.Equal(t, DefaultMinEasiness, out.Easiness)
		assert.Equal(t, DefaultMaxIntervalDays, out.IntervalDays)
	})

	t.Run("oversized interval is capped", func(t *testing.T) {
		state := domain.ScheduleState{
			DueAt:          day(1 + 50000),
			IntervalDays:   50000,
			Easiness:       2.5,
			LastReviewedAt: day(1),
		}
		out, violations := svc.Normalize(state, t0)
		require.Len(t, violations, 2)
		assert.Equal(t, "interval_days", violations[0].Field)
		assert.Equal(t, DefaultMaxIntervalDays, out.IntervalDays)
		assert.Equal(t, day(1+DefaultMaxIntervalDays), out.DueAt)
	})
}

func TestParams(t *testing.T) {
	t.Parallel()

	p := NewParams(ParamsConfig{MaxIntervalDays: 365, SuccessQuality: 5})
	assert.Equal(t, 365.0, p.MaxIntervalDays)
	assert.Equal(t, 5, p.SuccessQuality)
	assert.Equal(t, DefaultMinEasiness, p.MinEasiness, "zero fields keep defaults")
	assert.NoError(t, p.Validate())

	invalid := []ParamsConfig{
		{MinIntervalDays: 10, MaxIntervalDays: 5},
		{MinEasiness: 2.0, InitialEasiness: 1.5},
		{SuccessQuality: 2},
		{MinEasiness: math.Inf(1)},
		{MinEasiness: 0.5, InitialEasiness: 0.9, SuccessQuality: 3},
		{MaxIntervalDays: MaxIntervalLimitDays + 1},
		{MaxIntervalDays: 200000},
	}
	for _, cfg := range invalid {
		_, err := NewServiceWithParams(NewParams(cfg))
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", cfg)
	}

	svc, err := NewServiceWithParams(p)
	require.NoError(t, err)
	p.MaxIntervalDays = 1
	assert.Equal(t, 365.0, svc.Params().MaxIntervalDays, "service keeps its own copy")
}

func TestNextStateAtLimits(t *testing.T) {
	t.Parallel()

	t.Run("lowest floor never shrinks on success", func(t *testing.T) {
		svc, err := NewServiceWithParams(NewParams(ParamsConfig{
			InitialEasiness: 1,
			MinEasiness:     1,
			SuccessQuality:  3,
		}))
		require.NoError(t, err)

		state := domain.ScheduleState{IntervalDays: 10, Easiness: 1, LastReviewedAt: t0, DueAt: day(10)}
		for i := 0; i < 20; i++ {
			next := svc.NextState(state, true, state.DueAt)
			assert.GreaterOrEqual(t, next.IntervalDays, state.IntervalDays)
			assert.GreaterOrEqual(t, next.Easiness, 1.0)
			state = next
		}
	})

	t.Run("largest ceiling stays in the future", func(t *testing.T) {
		svc, err := NewServiceWithParams(NewParams(ParamsConfig{MaxIntervalDays: MaxIntervalLimitDays}))
		require.NoError(t, err)

		now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		state := domain.ScheduleState{IntervalDays: 60000, Easiness: 2.5, LastReviewedAt: now, DueAt: now}
		next := svc.NextState(state, true, now)

		assert.Equal(t, MaxIntervalLimitDays, next.IntervalDays)
		assert.True(t, next.DueAt.After(now))
		assert.Less(t, next.DueAt.Year(), 2262, "due time fits unix nanoseconds")
	})
}
