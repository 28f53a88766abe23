// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "github.com/go-gl/mathgl/mgl32"

// Bounds is an axis-aligned box described by its center and full edge lengths.
// It is the single static culling volume handed to instanced draw calls.
type Bounds struct {
	// Center is the world-space midpoint of the box.
	Center mgl32.Vec3
	// Size is the full extent of the box along each axis.
	Size mgl32.Vec3
}

// NewBounds creates a Bounds from a center point and a size.
//
// Parameters:
//   - center: the world-space midpoint of the box
//   - size: the full extent along x, y and z
//
// Returns:
//   - Bounds: the constructed box
func NewBounds(center, size mgl32.Vec3) Bounds {
	return Bounds{Center: center, Size: size}
}

// Extents returns half of Size, the distance from the center to each face.
func (b Bounds) Extents() mgl32.Vec3 {
	return b.Size.Mul(0.5)
}

// Min returns the corner with the smallest coordinates.
func (b Bounds) Min() mgl32.Vec3 {
	return b.Center.Sub(b.Extents())
}

// Max returns the corner with the largest coordinates.
func (b Bounds) Max() mgl32.Vec3 {
	return b.Center.Add(b.Extents())
}

// Contains reports whether p lies inside the box, faces included.
//
// Parameters:
//   - p: the point to test
//
// Returns:
//   - bool: true if p is within [Min, Max] on every axis
func (b Bounds) Contains(p mgl32.Vec3) bool {
	lo, hi := b.Min(), b.Max()
	for i := range 3 {
		if p[i] < lo[i] || p[i] > hi[i] {
			return false
		}
	}
	return true
}

// Radius returns the radius of the sphere enclosing the box.
func (b Bounds) Radius() float32 {
	return b.Extents().Len()
}
