package journal

import "errors"

var (
	// ErrInvalidEvent is returned when an entry lacks its identifying fields.
	ErrInvalidEvent = errors.New("journal: invalid entry")

	// ErrQueueFull is counted, not returned, when the recorder drops an entry.
	ErrQueueFull = errors.New("journal: recorder queue full")
)
