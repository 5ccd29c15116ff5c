package srs

import (
	"fmt"
	"time"

	"github.com/phrazzld/lazycard/internal/domain"
)

// dueDriftTolerance absorbs rounding in stored timestamps.
const dueDriftTolerance = time.Second

// Violation describes one field of a loaded schedule that was outside the
// valid domain and has been corrected.
type Violation struct {
	Field     string `json:"field"`
	Found     string `json:"found"`
	Corrected string `json:"corrected"`
}

// String implements fmt.Stringer.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s -> %s", v.Field, v.Found, v.Corrected)
}

// normalize clamps a loaded schedule into the valid domain. The anchor is the
// card's last review time, or its creation time if never reviewed. A reviewed
// card must be due at anchor + interval; a never-reviewed card at its anchor.
func normalize(state domain.ScheduleState, anchor time.Time, params *Params) (domain.ScheduleState, []Violation) {
	var violations []Violation
	out := state

	if !isFinite(out.Easiness) || out.Easiness < params.MinEasiness {
		violations = append(violations, Violation{
			Field:     "easiness",
			Found:     formatFloat(out.Easiness),
			Corrected: formatFloat(params.MinEasiness),
		})
		out.Easiness = params.MinEasiness
	}

	if clamped := clampInterval(out.IntervalDays, params); clamped != out.IntervalDays {
		violations = append(violations, Violation{
			Field:     "interval_days",
			Found:     formatFloat(out.IntervalDays),
			Corrected: formatFloat(clamped),
		})
		out.IntervalDays = clamped
	}

	if out.ConsecutiveSuccesses < 0 {
		violations = append(violations, Violation{
			Field:     "consecutive_successes",
			Found:     fmt.Sprint(out.ConsecutiveSuccesses),
			Corrected: "0",
		})
		out.ConsecutiveSuccesses = 0
	}

	expected := anchor.UTC()
	if out.Reviewed() {
		expected = calculateNextDueDate(out.LastReviewedAt, out.IntervalDays)
	}
	if drift := out.DueAt.Sub(expected); out.DueAt.IsZero() || drift > dueDriftTolerance || drift < -dueDriftTolerance {
		violations = append(violations, Violation{
			Field:     "due_at",
			Found:     out.DueAt.UTC().Format(time.RFC3339Nano),
			Corrected: expected.Format(time.RFC3339Nano),
		})
		out.DueAt = expected
	}

	return out, violations
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
