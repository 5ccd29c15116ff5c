package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrReviewRecordInvalid is returned when a review record fails validation.
var ErrReviewRecordInvalid = fmt.Errorf("%w: review record is invalid", ErrValidation)

// ReviewRecord is one immutable entry in a card's review history.
type ReviewRecord struct {
	ID             uuid.UUID `json:"id"`
	CardID         uuid.UUID `json:"card_id"`
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
	IntervalBefore float64   `json:"interval_before"`
	IntervalAfter  float64   `json:"interval_after"`
}

// NewReviewRecord creates a validated record for a review of cardID at ts.
func NewReviewRecord(cardID uuid.UUID, ts time.Time, success bool, before, after float64) (*ReviewRecord, error) {
	rec := &ReviewRecord{
		ID:             NewID(),
		CardID:         cardID,
		Timestamp:      ts.UTC(),
		Success:        success,
		IntervalBefore: before,
		IntervalAfter:  after,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the record has valid data.
func (r *ReviewRecord) Validate() error {
	if r.ID == uuid.Nil || r.CardID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrReviewRecordInvalid)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrReviewRecordInvalid)
	}
	if r.IntervalBefore <= 0 || r.IntervalAfter <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrReviewRecordInvalid)
	}
	return nil
}
