package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
)

// SortOrder names a card listing order.
type SortOrder string

// Supported sort orders.
const (
	SortNewest        SortOrder = "newest"
	SortOldest        SortOrder = "oldest"
	SortRetentionAsc  SortOrder = "retention_asc"
	SortRetentionDesc SortOrder = "retention_desc"
)

// ParseSortOrder parses a sort order name. An empty name yields SortNewest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortRetentionAsc, SortRetentionDesc:
		return order, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortOrder, s)
	}
}

// NeedsRetention reports whether the order sorts by retention rate.
func (o SortOrder) NeedsRetention() bool {
	return o == SortRetentionAsc || o == SortRetentionDesc
}

// SortCards returns a sorted copy of cards. Rates maps card IDs to retention
// rates; cards missing from it count as 0. Ties are broken by ID ascending.
func SortCards(order SortOrder, cards []*domain.Card, rates map[uuid.UUID]float64) ([]*domain.Card, error) {
	var primary func(a, b *domain.Card) int

	switch order {
	case SortNewest, "":
		primary = func(a, b *domain.Card) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		primary = func(a, b *domain.Card) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortRetentionAsc:
		primary = func(a, b *domain.Card) int { return compareFloat(rates[a.ID], rates[b.ID]) }
	case SortRetentionDesc:
		primary = func(a, b *domain.Card) int { return compareFloat(rates[b.ID], rates[a.ID]) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortOrder, order)
	}

	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b *domain.Card) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return sorted, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
