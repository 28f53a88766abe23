package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUDrawParamsSource is the canonical WGSL definition of the DrawParams struct.
// Matches GPUDrawParams layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/draw_params.wgsl
var GPUDrawParamsSource string

// GPUDrawParams is the GPU-aligned uniform read by the instanced vertex and fragment shaders.
// Matches the WGSL DrawParams struct layout exactly (see GPUDrawParamsSource).
// Size: 32 bytes (vec3 + pad, vec4).
type GPUDrawParams struct {
	MeshScale [3]float32 // offset  0: per-axis scale applied to every instance (vec3<f32>)
	_pad0     float32    // offset 12: implicit vec3 pad
	BaseColor [4]float32 // offset 16: RGBA surface color (vec4<f32>)
}

// Size returns the size of the GPUDrawParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUDrawParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUDrawParams) Marshal() []byte {
	buf := make([]byte, 32)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.MeshScale[i]))
	}
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad0
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.BaseColor[i]))
	}
	return buf
}
