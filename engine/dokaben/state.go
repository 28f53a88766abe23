package dokaben

import "fmt"

// State is a step of the Dokaben lifecycle.
type State int

const (
	// StateUninitialized is the state of a new manager, and of one whose Start failed before allocating.
	StateUninitialized State = iota
	// StateAllocated means the instance buffers exist but hold no data yet.
	StateAllocated
	// StateInitialized means the buffers are filled and the stages are bound.
	StateInitialized
	// StateUpdated means the compute dispatch of the current frame was encoded.
	StateUpdated
	// StateDrawn means the draw of the current frame was encoded.
	StateDrawn
	// StateReleased is terminal.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAllocated:
		return "allocated"
	case StateInitialized:
		return "initialized"
	case StateUpdated:
		return "updated"
	case StateDrawn:
		return "drawn"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// canUpdate reports whether a compute dispatch may be encoded from s.
func (s State) canUpdate() bool {
	return s == StateInitialized || s == StateUpdated || s == StateDrawn
}
