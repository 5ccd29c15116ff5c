package sqldb

import (
	"time"

	"github.com/google/uuid"
)

// Timestamps are stored as Unix nanoseconds in BIGINT columns so that both
// backends keep full precision and compare them numerically. Zero means unset.

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
