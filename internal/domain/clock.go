package domain

import "time"

// Clock returns the current time. Services take a Clock so that tests can
// pin the time of reviews and creations.
type Clock func() time.Time

// SystemClock returns the wall clock time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
