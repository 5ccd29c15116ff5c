package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUID (version 7), so sorting by ID follows
// creation order. It falls back to a random UUID if the clock source fails.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Days converts a fractional day count into a duration.
func Days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}
