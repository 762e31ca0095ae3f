package execution

import "errors"

// Domain errors for the execution package.
var (
	// ErrEffectNotFound is returned when cancelling an unknown effect.
	ErrEffectNotFound = errors.New("execution: effect not found")

	// ErrInvalidIntent is returned for a live intent message that cannot be
	// turned into an effect.
	ErrInvalidIntent = errors.New("execution: invalid live intent")

	// ErrUnknownIntentType is returned for an unrecognised intent type name.
	ErrUnknownIntentType = errors.New("execution: unknown intent type")
)
