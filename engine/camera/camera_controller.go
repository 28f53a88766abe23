package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the positional state of a camera. Camera reads position and target
// from it and computes view and projection matrices.
//
// The controller orbits a target using spherical coordinates (radius, azimuth, elevation).
// Azimuth is measured around the Y axis from +Z, elevation from the horizontal plane.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget sets the pivot point and recomputes the position.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	// Zoom moves toward the target by delta times the zoom speed. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount, typically a scroll wheel offset
	Zoom(delta float32)

	// Orbit rotates around the target by the given angle offsets. Elevation is clamped.
	//
	// Parameters:
	//   - dAzimuth: azimuth change in radians
	//   - dElevation: elevation change in radians
	Orbit(dAzimuth, dElevation float32)

	// Drag orbits by a mouse movement scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal movement in pixels
	//   - dy: vertical movement in pixels
	Drag(dx, dy float32)

	// OrbitLeft rotates left by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates right by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts upward by one orbit speed step.
	OrbitUp()

	// OrbitDown tilts downward by one orbit speed step.
	OrbitDown()

	// Radius returns the distance from the target.
	//
	// Returns:
	//   - float32: current orbit radius
	Radius() float32

	// SetRadius sets the orbit radius, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// SetRadiusBounds replaces the zoom limits and re-clamps the radius.
	//
	// Parameters:
	//   - minRadius: closest allowed distance
	//   - maxRadius: farthest allowed distance
	SetRadiusBounds(minRadius, maxRadius float32)

	// Azimuth returns the horizontal angle in radians.
	Azimuth() float32

	// Elevation returns the vertical angle in radians.
	Elevation() float32
}
