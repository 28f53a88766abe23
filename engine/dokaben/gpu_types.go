package dokaben

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/model"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUMatrix2x2Source is the canonical WGSL definition of the Matrix2x2 struct.
// Matches GPUMatrix2x2 layout exactly (16 bytes).
//
//go:embed assets/matrix2x2.wgsl
var GPUMatrix2x2Source string

// GPUDokabenDataSource is the canonical WGSL definition of the DokabenData struct.
// Matches GPUDokabenData layout exactly (32 bytes, vec3 padded to 16).
//
//go:embed assets/dokaben_data.wgsl
var GPUDokabenDataSource string

// GPUComputeParamsSource is the canonical WGSL definition of the ComputeParams uniform.
// Matches GPUComputeParams layout exactly (16 bytes).
//
//go:embed assets/compute_params.wgsl
var GPUComputeParamsSource string

//go:embed assets/dokaben_compute.wgsl
var computeShaderSource string

//go:embed assets/dokaben_vertex.wgsl
var vertexShaderSource string

//go:embed assets/dokaben_fragment.wgsl
var fragmentShaderSource string

const (
	// DokabenDataSize is the stride of one record in the records buffer.
	DokabenDataSize = 32
	// PhaseSize is the stride of one phase offset in the phase buffer.
	PhaseSize = 4
	// IndirectArgsSize is the size of the DrawIndexedIndirect argument block.
	IndirectArgsSize = 20
	// ComputeParamsSize is the size of the compute uniform.
	ComputeParamsSize = 16

	// rotationOffset is the byte offset of the rotation inside a record.
	rotationOffset = 16
)

// Includes returns the struct registry used by the Dokaben shaders, keyed by the names used
// in //@oxy:include and //@oxy:group annotations.
//
// Returns:
//   - map[shader.AnnotationArg]shader.Include: a fresh registry the caller may extend
func Includes() map[shader.AnnotationArg]shader.Include {
	return map[shader.AnnotationArg]shader.Include{
		"Matrix2x2":     {Source: GPUMatrix2x2Source, Type: "Matrix2x2"},
		"DokabenData":   {Source: GPUDokabenDataSource, Type: "DokabenData"},
		"ComputeParams": {Source: GPUComputeParamsSource, Type: "ComputeParams"},
		"Phase":         {Type: "f32"},
		"DrawParams":    {Source: material.GPUDrawParamsSource, Type: "DrawParams"},
		"CameraUniform": {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
		"VertexInput":   {Source: model.GPUVertexSource, Type: "VertexInput"},
	}
}

// GPUMatrix2x2 is a 2D rotation stored in the field order read by the shaders.
// Matches the WGSL Matrix2x2 struct layout exactly (see GPUMatrix2x2Source).
// Size: 16 bytes.
type GPUMatrix2x2 struct {
	M00 float32 // offset  0
	M11 float32 // offset  4
	M01 float32 // offset  8
	M10 float32 // offset 12
}

// IdentityMatrix2x2 returns the rotation by zero.
func IdentityMatrix2x2() GPUMatrix2x2 {
	return GPUMatrix2x2{M00: 1, M11: 1}
}

// Determinant returns m00*m11 - m01*m10.
func (m GPUMatrix2x2) Determinant() float32 {
	return m.M00*m.M11 - m.M01*m.M10
}

// Apply rotates the (y, z) pair the same way the vertex shader does.
//
// Parameters:
//   - y: the first coordinate of the rotation plane
//   - z: the second coordinate of the rotation plane
//
// Returns:
//   - float32: rotated y
//   - float32: rotated z
func (m GPUMatrix2x2) Apply(y, z float32) (float32, float32) {
	return m.M00*y + m.M01*z, m.M10*y + m.M11*z
}

// Mat4 embeds the rotation in the (y, z) block of a 4x4 matrix, leaving x as the hinge axis.
func (m GPUMatrix2x2) Mat4() mgl32.Mat4 {
	r := mgl32.Ident4()
	r.Set(1, 1, m.M00)
	r.Set(1, 2, m.M01)
	r.Set(2, 1, m.M10)
	r.Set(2, 2, m.M11)
	return r
}

// GPUDokabenData is the per-instance record shared by the compute kernel and the vertex shader.
// Matches the WGSL DokabenData struct layout exactly (see GPUDokabenDataSource).
// Size: 32 bytes.
type GPUDokabenData struct {
	Position [3]float32   // offset  0: world-space position (vec3<f32>)
	_pad0    float32      // offset 12: vec3 padding, always 0
	Rotation GPUMatrix2x2 // offset 16: current rotation in the (y, z) plane
}

// Size returns the size of the GPUDokabenData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUDokabenData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the record into a 32-byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized record
func (g *GPUDokabenData) Marshal() []byte {
	buf := make([]byte, DokabenDataSize)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo writes the record into the first 32 bytes of buf.
func (g *GPUDokabenData) MarshalTo(buf []byte) {
	putFloats(buf, g.Position[0], g.Position[1], g.Position[2], 0)
	putRotation(buf[rotationOffset:], g.Rotation)
}

// UnmarshalDokabenData decodes one record from the first 32 bytes of buf.
//
// Parameters:
//   - buf: at least 32 bytes in GPU layout
//
// Returns:
//   - GPUDokabenData: the decoded record
func UnmarshalDokabenData(buf []byte) GPUDokabenData {
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	return GPUDokabenData{
		Position: [3]float32{f(0), f(4), f(8)},
		Rotation: GPUMatrix2x2{M00: f(16), M11: f(20), M01: f(24), M10: f(28)},
	}
}

// InstanceTransform returns the model matrix the vertex shader applies to one instance:
// rotate in (y, z), then scale, then translate.
//
// Parameters:
//   - scale: the mesh scale shared by every instance
//
// Returns:
//   - mgl32.Mat4: translation * scale * rotation
func (g *GPUDokabenData) InstanceTransform(scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(g.Position[0], g.Position[1], g.Position[2])
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(s).Mul4(g.Rotation.Mat4())
}

// GPUIndirectArgs is the argument block of a DrawIndexedIndirect call.
// Size: 20 bytes.
type GPUIndirectArgs struct {
	IndexCount    uint32 // offset  0
	InstanceCount uint32 // offset  4
	FirstIndex    uint32 // offset  8
	BaseVertex    int32  // offset 12
	FirstInstance uint32 // offset 16
}

// Size returns the size of the GPUIndirectArgs struct in bytes.
func (g *GPUIndirectArgs) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the argument block for upload into an indirect buffer.
//
// Returns:
//   - []byte: the 20-byte argument block
func (g *GPUIndirectArgs) Marshal() []byte {
	buf := make([]byte, IndirectArgsSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(g.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], g.FirstInstance)
	return buf
}

// GPUComputeParams is the uniform read by the animation kernel.
// Matches the WGSL ComputeParams struct layout exactly (see GPUComputeParamsSource).
// Size: 16 bytes.
type GPUComputeParams struct {
	Time           float32 // offset  0: animation clock in seconds
	AnimationSpeed float32 // offset  4: clock multiplier
	_pad0          uint32  // offset  8
	_pad1          uint32  // offset 12
}

// Size returns the size of the GPUComputeParams struct in bytes.
func (g *GPUComputeParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a 16-byte buffer.
//
// Returns:
//   - []byte: the serialized uniform
func (g *GPUComputeParams) Marshal() []byte {
	buf := make([]byte, ComputeParamsSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Time))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.AnimationSpeed))
	return buf
}

func putFloats(buf []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func putRotation(buf []byte, m GPUMatrix2x2) {
	putFloats(buf, m.M00, m.M11, m.M01, m.M10)
}
