package retention

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/store"
)

// Summary is the review totals of one card.
type Summary struct {
	CardID    uuid.UUID `json:"card_id"`
	Total     int       `json:"total"`
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
	Rate      float64   `json:"retention_rate"`
}

// Calculator computes retention metrics.
type Calculator interface {
	// RetentionRate returns successes / total over the card's full history,
	// or 0 when the card has never been reviewed.
	RetentionRate(ctx context.Context, cardID uuid.UUID) (float64, error)

	// TopicRetentionRate returns the mean retention rate of the topic's
	// cards that have at least one review. Unreviewed cards are excluded;
	// a topic without reviewed cards yields 0.
	TopicRetentionRate(ctx context.Context, topicID uuid.UUID) (float64, error)

	// Summary returns the review totals of one card.
	Summary(ctx context.Context, cardID uuid.UUID) (Summary, error)

	// Rates returns the retention rate of every reviewed card in the given
	// topics. Cards missing from the map have no reviews.
	Rates(ctx context.Context, topicIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

// Rate computes the retention rate of a set of review records.
func Rate(records []*domain.ReviewRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	successes := 0
	for _, r := range records {
		if r.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(records))
}

func rateOf(counts store.ReviewCounts) float64 {
	if counts.Total == 0 {
		return 0
	}
	return float64(counts.Successes) / float64(counts.Total)
}

type storeCalculator struct {
	reviews store.ReviewStore
	logger  *slog.Logger
}

var _ Calculator = (*storeCalculator)(nil)

// NewCalculator creates a Calculator that reads through the review store.
func NewCalculator(reviews store.ReviewStore, logger *slog.Logger) Calculator {
	if reviews == nil {
		panic("review store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &storeCalculator{
		reviews: reviews,
		logger:  logger.With(slog.String("component", "retention_calculator")),
	}
}

func (c *storeCalculator) RetentionRate(ctx context.Context, cardID uuid.UUID) (float64, error) {
	summary, err := c.Summary(ctx, cardID)
	if err != nil {
		return 0, err
	}
	return summary.Rate, nil
}

func (c *storeCalculator) Summary(ctx context.Context, cardID uuid.UUID) (Summary, error) {
	counts, err := c.reviews.Counts(ctx, cardID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count reviews for card %s: %w", cardID, err)
	}
	return Summary{
		CardID:    cardID,
		Total:     counts.Total,
		Successes: counts.Successes,
		Failures:  counts.Total - counts.Successes,
		Rate:      rateOf(counts),
	}, nil
}

func (c *storeCalculator) TopicRetentionRate(ctx context.Context, topicID uuid.UUID) (float64, error) {
	rates, err := c.Rates(ctx, []uuid.UUID{topicID})
	if err != nil {
		return 0, err
	}
	if len(rates) == 0 {
		return 0, nil
	}

	var sum float64
	for _, rate := range rates {
		sum += rate
	}
	return sum / float64(len(rates)), nil
}

func (c *storeCalculator) Rates(ctx context.Context, topicIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	counts, err := c.reviews.CountsByTopics(ctx, topicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews by topic: %w", err)
	}

	rates := make(map[uuid.UUID]float64, len(counts))
	for _, cc := range counts {
		if cc.Total > 0 {
			rates[cc.CardID] = rateOf(cc)
		}
	}
	return rates, nil
}
