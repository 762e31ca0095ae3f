package output

import "errors"

// Domain errors for the output package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, output.ErrNoDataPolicy) {
//	    // configuration error, the device cannot run
//	}
var (
	// ErrNoDataPolicy is returned when neither an output nor its controller
	// has a data policy. It is a configuration error and fatal for the device.
	ErrNoDataPolicy = errors.New("output: no data policy")

	// ErrChainBroken is returned when a chain references a controller that is
	// not registered.
	ErrChainBroken = errors.New("output: controller chain broken")

	// ErrCycle is returned when a link would make a chain circular.
	ErrCycle = errors.New("output: controller chain cycle")

	// ErrAlreadyLinked is returned when a controller already has a prior or
	// next controller.
	ErrAlreadyLinked = errors.New("output: controller already linked")

	// ErrSelfLink is returned when a controller is linked to itself.
	ErrSelfLink = errors.New("output: controller linked to itself")

	// ErrUnknownController is returned for an unregistered controller id.
	ErrUnknownController = errors.New("output: unknown controller")

	// ErrControllerExists is returned when a controller id is registered twice.
	ErrControllerExists = errors.New("output: controller already registered")

	// ErrOutputIndex is returned for an output index out of range.
	ErrOutputIndex = errors.New("output: output index out of range")
)
