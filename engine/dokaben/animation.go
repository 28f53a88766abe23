package dokaben

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
)

const (
	// ComputeEntryPoint is the WGSL entry point of the animation kernel.
	ComputeEntryPoint = "MainCS"

	// WorkgroupSize is the thread count of one animation workgroup.
	WorkgroupSize = 256

	easeC1 = 1.70158
	easeC3 = easeC1 + 1
)

// EaseOutBack overshoots past 1 before settling, with the standard 1.70158 back amount.
//
// Parameters:
//   - x: progress in [0, 1]
//
// Returns:
//   - float64: eased progress, 0 at x=0 and 1 at x=1
func EaseOutBack(x float64) float64 {
	f := x - 1
	return 1 + easeC3*f*f*f + easeC1*f*f
}

// AnimationAngle maps animation time to a rotation angle. Each quarter turn takes π/2 of
// time and ends with an eased overshoot, so tiles flip in discrete steps.
//
// Parameters:
//   - t: clock * speed + phase
//
// Returns:
//   - float32: the angle in radians
func AnimationAngle(t float32) float32 {
	q := float64(t) / (math.Pi / 2)
	whole := math.Floor(q)
	return float32((whole + EaseOutBack(q-whole)) * math.Pi / 2)
}

// Rotation builds the compact rotation by angle in the {cos, cos, -sin, sin} field order.
func Rotation(angle float32) GPUMatrix2x2 {
	s, c := math.Sincos(float64(angle))
	return GPUMatrix2x2{M00: float32(c), M11: float32(c), M01: float32(-s), M10: float32(s)}
}

// Kernel is the CPU rendition of MainCS for the software backend. Bindings 0, 1 and 2 are the
// compute params, the records and the phases. Threads past the end of the records are skipped.
//
// Parameters:
//   - wg: one workgroup of the dispatch
//
// Returns:
//   - error: an error if the params binding is too small
func Kernel(wg renderer.Workgroup) error {
	params, records, phases := wg.Bindings[0], wg.Bindings[1], wg.Bindings[2]
	if len(params) < ComputeParamsSize {
		return fmt.Errorf("dokaben kernel: params binding holds %d bytes, want %d", len(params), ComputeParamsSize)
	}
	clock := math.Float32frombits(binary.LittleEndian.Uint32(params[0:]))
	speed := math.Float32frombits(binary.LittleEndian.Uint32(params[4:]))

	count := uint32(min(len(records)/DokabenDataSize, len(phases)/PhaseSize))
	for local := range wg.Size[0] {
		i := wg.GlobalX(local)
		if i >= count {
			break
		}
		phase := math.Float32frombits(binary.LittleEndian.Uint32(phases[i*PhaseSize:]))
		rot := Rotation(AnimationAngle(clock*speed + phase))
		putRotation(records[i*DokabenDataSize+rotationOffset:], rot)
	}
	return nil
}

// SoftwareKernel registers Kernel for the animation entry point on a software renderer.
//
// Returns:
//   - renderer.RendererBuilderOption: the kernel registration option
func SoftwareKernel() renderer.RendererBuilderOption {
	return renderer.WithSoftwareKernel(ComputeEntryPoint, Kernel)
}
