package filter

import "errors"

var (
	// ErrUnknownFilter is returned when a filter type is not recognised.
	ErrUnknownFilter = errors.New("filter: unknown type")

	// ErrInvalidParameter is returned when a filter parameter is out of range.
	ErrInvalidParameter = errors.New("filter: invalid parameter")
)
