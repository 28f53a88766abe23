// Package buffer defines the backend-neutral handle to a GPU buffer. Each renderer backend
// hands out its own implementation, so callers can own and pass buffers around without
// depending on a specific graphics API.
package buffer

import "strings"

// Usage is a bitmask describing how a buffer may be bound and written.
type Usage uint32

const (
	// UsageCopyDst allows the buffer to be the destination of queue writes.
	UsageCopyDst Usage = 1 << iota
	// UsageCopySrc allows the buffer to be the source of copies.
	UsageCopySrc
	// UsageUniform allows binding as a uniform buffer.
	UsageUniform
	// UsageStorage allows binding as a storage buffer (read-only or read-write).
	UsageStorage
	// UsageIndirect allows the buffer to supply indirect draw or dispatch arguments.
	UsageIndirect
	// UsageVertex allows binding as a vertex buffer.
	UsageVertex
	// UsageIndex allows binding as an index buffer.
	UsageIndex
)

var usageNames = []struct {
	flag Usage
	name string
}{
	{UsageCopyDst, "CopyDst"},
	{UsageCopySrc, "CopySrc"},
	{UsageUniform, "Uniform"},
	{UsageStorage, "Storage"},
	{UsageIndirect, "Indirect"},
	{UsageVertex, "Vertex"},
	{UsageIndex, "Index"},
}

// Has reports whether every bit in flag is set on u.
//
// Parameters:
//   - flag: the usage bits to test
//
// Returns:
//   - bool: true if all bits are present
func (u Usage) Has(flag Usage) bool {
	return u&flag == flag
}

func (u Usage) String() string {
	if u == 0 {
		return "None"
	}
	parts := make([]string, 0, len(usageNames))
	for _, n := range usageNames {
		if u.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Buffer is a GPU-resident allocation created by a renderer backend.
// Release is idempotent on every implementation.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Size returns the allocation size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	//
	// Returns:
	//   - Usage: the usage bitmask
	Usage() Usage

	// Released reports whether Release has already been called.
	//
	// Returns:
	//   - bool: true once the buffer has been released
	Released() bool

	// Release frees the underlying GPU memory. Calling it more than once is a no-op.
	Release()
}
