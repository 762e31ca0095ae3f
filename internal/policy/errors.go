package policy

import "errors"

var (
	// ErrUnknownPolicy is returned when a data policy name is not recognised.
	ErrUnknownPolicy = errors.New("policy: unknown data policy")
)
