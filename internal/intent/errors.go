package intent

import "errors"

// Domain errors for the intent package.
var (
	// ErrUnknownOperation is returned when a combination operation name is not recognised.
	ErrUnknownOperation = errors.New("intent: unknown combination operation")
)
