package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/lazycard/internal/domain"
)

// CommitReview appends a review record and replaces the card's schedule.
// Pass transaction-bound stores so that both writes apply or neither does.
func CommitReview(
	ctx context.Context,
	cards CardStore,
	reviews ReviewStore,
	schedule domain.ScheduleState,
	record *domain.ReviewRecord,
) error {
	if err := reviews.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append review record: %w", err)
	}
	if err := cards.UpdateSchedule(ctx, record.CardID, schedule); err != nil {
		return fmt.Errorf("failed to update card schedule: %w", err)
	}
	return nil
}
