package review

import (
	"fmt"

	"github.com/phrazzld/lazycard/internal/store"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = fmt.Errorf("%w: review session", store.ErrNotFound)

	// ErrCardNotInSession is returned when submitting or skipping a card
	// that is not queued in the session.
	ErrCardNotInSession = fmt.Errorf("%w: card is not in this session", store.ErrNotFound)

	// ErrSubmissionInProgress is returned when a card of a session is
	// submitted again before the first submission finished.
	ErrSubmissionInProgress = fmt.Errorf("%w: card submission already in progress", store.ErrConflict)
)
