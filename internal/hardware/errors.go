package hardware

import "errors"

// Domain errors for the hardware package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, hardware.ErrStopTimeout) {
//	    // device is hung
//	}
var (
	// ErrStopTimeout is returned by WaitForFinish when the update loop did
	// not stop within the stop timeout. The device is assumed hung.
	ErrStopTimeout = errors.New("hardware: device failed to stop in time")

	// ErrInvalidState is returned when Start or Stop is called from a state
	// that does not allow it.
	ErrInvalidState = errors.New("hardware: invalid thread state")

	// ErrDeviceFault wraps any failure that ended an update loop.
	ErrDeviceFault = errors.New("hardware: device fault")

	// ErrDeviceExists is returned when a device name is added twice.
	ErrDeviceExists = errors.New("hardware: device already managed")

	// ErrDeviceNotFound is returned for an unknown device name.
	ErrDeviceNotFound = errors.New("hardware: device not found")
)
