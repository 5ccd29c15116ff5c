package srs

import (
	"math"
	"time"

	"github.com/phrazzld/lazycard/internal/domain"
)

// calculateNewEasiness determines the new easiness based on the review outcome.
//
// Easiness represents how quickly intervals grow for a card. A success applies
// the SM-2 adjustment for the configured quality q:
//
//	e' = e + 0.1 - (5-q) * (0.08 + (5-q) * 0.02)
//
// which is zero for the default q = 4. A failure subtracts the failure penalty.
//
// Parameters:
//   - currentEasiness: The card's current easiness
//   - success: Whether the review was successful
//   - params: Configuration parameters for the scheduler
//
// Returns:
//   - The new easiness, never below params.MinEasiness
func calculateNewEasiness(currentEasiness float64, success bool, params *Params) float64 {
	var newEasiness float64
	if success {
		d := float64(5 - params.SuccessQuality)
		newEasiness = currentEasiness + 0.1 - d*(0.08+d*0.02)
	} else {
		newEasiness = currentEasiness - params.FailurePenalty
	}

	if !isFinite(newEasiness) || newEasiness < params.MinEasiness {
		newEasiness = params.MinEasiness
	}

	return newEasiness
}

// calculateNewInterval determines how many days should pass until the next review.
//
// A success multiplies the current interval by the new easiness. Since easiness
// never drops below a floor of at least one, a success never shortens the
// interval except when it is capped. A failure resets the interval to the
// minimum.
//
// Returns:
//   - The new interval in days, clamped to [params.MinIntervalDays, params.MaxIntervalDays]
func calculateNewInterval(currentInterval, newEasiness float64, success bool, params *Params) float64 {
	if !success {
		return params.MinIntervalDays
	}
	return clampInterval(currentInterval*newEasiness, params)
}

// calculateNextDueDate converts the interval into the next due time.
func calculateNextDueDate(now time.Time, intervalDays float64) time.Time {
	return now.UTC().Add(domain.Days(intervalDays))
}

// nextState applies one review outcome to a schedule. It is pure and total;
// the input is never modified.
func nextState(current domain.ScheduleState, success bool, now time.Time, params *Params) domain.ScheduleState {
	newEasiness := calculateNewEasiness(current.Easiness, success, params)
	newInterval := calculateNewInterval(clampInterval(current.IntervalDays, params), newEasiness, success, params)

	consecutive := 0
	if success {
		consecutive = max(current.ConsecutiveSuccesses, 0) + 1
	}

	return domain.ScheduleState{
		DueAt:                calculateNextDueDate(now, newInterval),
		IntervalDays:         newInterval,
		Easiness:             newEasiness,
		ConsecutiveSuccesses: consecutive,
		LastReviewedAt:       now.UTC(),
	}
}

func clampInterval(interval float64, params *Params) float64 {
	if math.IsNaN(interval) || interval < params.MinIntervalDays {
		return params.MinIntervalDays
	}
	if interval > params.MaxIntervalDays {
		return params.MaxIntervalDays
	}
	return interval
}
