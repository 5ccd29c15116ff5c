package domain

import (
	"errors"
	"time"
)

// ScheduleState is the per-card review schedule. DueAt is always the anchor
// (last review, or card creation) plus IntervalDays.
type ScheduleState struct {
	DueAt                time.Time `json:"due_at"`
	IntervalDays         float64   `json:"interval_days"`
	Easiness             float64   `json:"easiness"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	LastReviewedAt       time.Time `json:"last_reviewed_at"`
}

// Validate performs structural checks only. Range checks against the
// scheduler's configured bounds belong to the srs package.
func (s ScheduleState) Validate() error {
	if s.DueAt.IsZero() {
		return errors.New("due date is not set")
	}
	if s.IntervalDays <= 0 {
		return errors.New("interval must be positive")
	}
	if s.Easiness <= 0 {
		return errors.New("easiness must be positive")
	}
	if s.ConsecutiveSuccesses < 0 {
		return errors.New("consecutive successes cannot be negative")
	}
	return nil
}

// IsDue reports whether the schedule is due at or before asOf.
func (s ScheduleState) IsDue(asOf time.Time) bool {
	return !s.DueAt.After(asOf)
}

// Reviewed reports whether the card has been reviewed at least once.
func (s ScheduleState) Reviewed() bool {
	return !s.LastReviewedAt.IsZero()
}
