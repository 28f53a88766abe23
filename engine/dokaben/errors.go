package dokaben

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned when the instance count is outside [MinCapacity, MaxCapacity].
	ErrInvalidCapacity = errors.New("dokaben: capacity out of range")

	// ErrInvalidState is returned when an operation is called in a lifecycle state that does not allow it.
	ErrInvalidState = errors.New("dokaben: invalid state")

	// ErrWorkgroupSize is returned when the compute entry point is not compiled for WorkgroupSize threads.
	ErrWorkgroupSize = errors.New("dokaben: unexpected compute workgroup size")
)

// AllocationError reports a GPU buffer the device could not provide. It is fatal to Start.
type AllocationError struct {
	// Label is the debug label of the buffer that failed.
	Label string
	// Size is the requested size in bytes.
	Size uint64
	// Err is the backend error.
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("dokaben: allocate %s (%d bytes): %v", e.Label, e.Size, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}
