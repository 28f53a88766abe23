package dokaben

import (
	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/model"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// DokabenBuilderOption is a functional option for configuring a Dokaben via NewDokaben.
type DokabenBuilderOption func(*dokaben)

// WithCapacity sets the instance count. It is validated by Start.
//
// Parameters:
//   - capacity: the number of tiles, in [MinCapacity, MaxCapacity]
//
// Returns:
//   - DokabenBuilderOption: a function that applies the capacity
func WithCapacity(capacity int) DokabenBuilderOption {
	return func(d *dokaben) {
		d.capacity = capacity
	}
}

// WithAnimationSpeed sets the multiplier applied to the animation clock.
//
// Parameters:
//   - speed: the clock multiplier
//
// Returns:
//   - DokabenBuilderOption: a function that applies the speed
func WithAnimationSpeed(speed float32) DokabenBuilderOption {
	return func(d *dokaben) {
		d.animationSpeed = speed
	}
}

// WithMeshScale sets the scale applied to every tile.
func WithMeshScale(scale mgl32.Vec3) DokabenBuilderOption {
	return func(d *dokaben) {
		d.meshScale = scale
	}
}

// WithBounds sets the box tiles are placed in. It is also the culling volume of the draw.
//
// Parameters:
//   - bounds: the placement box
//
// Returns:
//   - DokabenBuilderOption: a function that applies the bounds
func WithBounds(bounds common.Bounds) DokabenBuilderOption {
	return func(d *dokaben) {
		d.bounds = bounds
	}
}

// WithSeed sets the seed of the placement generator.
func WithSeed(seed uint64) DokabenBuilderOption {
	return func(d *dokaben) {
		d.seed = seed
	}
}

// WithMesh sets the model drawn for every tile. A nil model draws nothing.
func WithMesh(mesh model.Model) DokabenBuilderOption {
	return func(d *dokaben) {
		d.mesh = mesh
	}
}

// WithMaterial sets the material of the draw. A nil material skips drawing.
//
// Parameters:
//   - mat: the material, or nil
//
// Returns:
//   - DokabenBuilderOption: a function that applies the material
func WithMaterial(mat material.Material) DokabenBuilderOption {
	return func(d *dokaben) {
		d.material = mat
	}
}

// WithCamera sets the camera used for drawing. A camera without a controller is framed on
// the bounds by Start.
func WithCamera(cam camera.Camera) DokabenBuilderOption {
	return func(d *dokaben) {
		d.camera = cam
	}
}

// WithComputePipelineKey overrides the cache key of the animation pipeline.
func WithComputePipelineKey(key string) DokabenBuilderOption {
	return func(d *dokaben) {
		d.computePipelineKey = key
	}
}

// WithShaderValidation toggles naga validation of the shaders compiled by Start.
func WithShaderValidation(enabled bool) DokabenBuilderOption {
	return func(d *dokaben) {
		d.validateShaders = enabled
	}
}
