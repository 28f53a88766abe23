package dokaben

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUTypeSizes(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"GPUDokabenData", (&GPUDokabenData{}).Size(), DokabenDataSize},
		{"GPUIndirectArgs", (&GPUIndirectArgs{}).Size(), IndirectArgsSize},
		{"GPUComputeParams", (&GPUComputeParams{}).Size(), ComputeParamsSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.size != tt.want {
				t.Errorf("Size() = %d, want %d", tt.size, tt.want)
			}
		})
	}
}

func TestDokabenDataLayout(t *testing.T) {
	rec := GPUDokabenData{
		Position: [3]float32{1, 2, 3},
		Rotation: GPUMatrix2x2{M00: 4, M11: 5, M01: 6, M10: 7},
	}
	buf := rec.Marshal()
	want := []float32{1, 2, 3, 0, 4, 5, 6, 7}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])); got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
	if back := UnmarshalDokabenData(buf); back != rec {
		t.Errorf("UnmarshalDokabenData() = %+v, want %+v", back, rec)
	}
}

func TestIndirectArgsLayout(t *testing.T) {
	args := GPUIndirectArgs{IndexCount: 36, InstanceCount: 14384, BaseVertex: -1}
	buf := args.Marshal()
	want := []uint32{36, 14384, 0, 0xFFFFFFFF, 0}
	for i, w := range want {
		if got := binary.LittleEndian.Uint32(buf[i*4:]); got != w {
			t.Errorf("word %d = %d, want %d", i, got, w)
		}
	}
}

func TestInstanceTransformMatchesShader(t *testing.T) {
	angle := float32(0.7)
	rec := GPUDokabenData{Position: [3]float32{3, -2, 5}, Rotation: Rotation(angle)}
	scale := mgl32.Vec3{2, 3, 4}
	vertex := mgl32.Vec3{0.5, 0.25, -0.1}

	got := rec.InstanceTransform(scale).Mul4x1(vertex.Vec4(1)).Vec3()

	// rotate (y, z), then scale, then translate
	y, z := rec.Rotation.Apply(vertex[1], vertex[2])
	want := mgl32.Vec3{vertex[0] * scale[0], y * scale[1], z * scale[2]}.Add(mgl32.Vec3(rec.Position))
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("InstanceTransform() moved %v to %v, want %v", vertex, got, want)
	}
}

// TestShaderLayoutsMatchGoTypes reflects the shipped shaders and checks that every struct the
// Go side uploads has the same size in WGSL.
func TestShaderLayoutsMatchGoTypes(t *testing.T) {
	cs, err := shader.NewShader("cs", shader.ShaderTypeCompute,
		shader.WithSource(computeShaderSource), shader.WithIncludes(Includes()), shader.WithEntryPoint(ComputeEntryPoint))
	if err != nil {
		t.Fatalf("compute shader: %v", err)
	}
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex,
		shader.WithSource(vertexShaderSource), shader.WithIncludes(Includes()), shader.WithEntryPoint(vertexEntryPoint))
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	if _, err := shader.NewShader("fs", shader.ShaderTypeFragment,
		shader.WithSource(fragmentShaderSource), shader.WithIncludes(Includes()), shader.WithEntryPoint(fragmentEntryPoint)); err != nil {
		t.Fatalf("fragment shader: %v", err)
	}

	if got := cs.WorkgroupSize(); got != [3]uint32{WorkgroupSize, 1, 1} {
		t.Errorf("compute workgroup size = %v, want [%d 1 1]", got, WorkgroupSize)
	}

	sizes := []struct {
		sh     shader.Shader
		name   string
		goSize int
	}{
		{cs, "Matrix2x2", 16},
		{cs, "DokabenData", (&GPUDokabenData{}).Size()},
		{cs, "ComputeParams", (&GPUComputeParams{}).Size()},
		{vs, "DokabenData", (&GPUDokabenData{}).Size()},
		{vs, "CameraUniform", (&camera.GPUCameraUniform{}).Size()},
		{vs, "DrawParams", (&material.GPUDrawParams{}).Size()},
	}
	for _, tt := range sizes {
		t.Run(tt.sh.Key()+"/"+tt.name, func(t *testing.T) {
			got, ok := tt.sh.StructSize(tt.name)
			if !ok || got != uint64(tt.goSize) {
				t.Errorf("StructSize(%s) = %d, %v, want %d", tt.name, got, ok, tt.goSize)
			}
		})
	}

	bindings := []struct {
		sh      shader.Shader
		group   int
		varName string
		want    int
	}{
		{cs, 0, "params", 0},
		{cs, 0, "dokaben_data", 1},
		{cs, 0, "phase", 2},
		{vs, 0, "camera", 0},
		{vs, 1, "dokaben_data", 0},
		{vs, 1, "draw_params", 1},
	}
	for _, tt := range bindings {
		if got, ok := tt.sh.BindGroupFromVarName(tt.group, tt.varName); !ok || got != tt.want {
			t.Errorf("%s group %d %s binding = %d, %v, want %d", tt.sh.Key(), tt.group, tt.varName, got, ok, tt.want)
		}
	}

	strides := 0
	for _, layouts := range vs.VertexLayouts() {
		for _, l := range layouts {
			strides++
			if l.ArrayStride != 32 {
				t.Errorf("vertex stride = %d, want 32", l.ArrayStride)
			}
		}
	}
	if strides == 0 {
		t.Error("vertex shader reflected no vertex buffer layout")
	}
}

func TestShippedShadersCompile(t *testing.T) {
	sources := []struct {
		name   string
		typ    shader.ShaderType
		source string
		entry  string
	}{
		{"compute", shader.ShaderTypeCompute, computeShaderSource, ComputeEntryPoint},
		{"vertex", shader.ShaderTypeVertex, vertexShaderSource, vertexEntryPoint},
		{"fragment", shader.ShaderTypeFragment, fragmentShaderSource, fragmentEntryPoint},
	}
	for _, tt := range sources {
		t.Run(tt.name, func(t *testing.T) {
			s, err := shader.NewShader(tt.name, tt.typ, shader.WithSource(tt.source), shader.WithIncludes(Includes()), shader.WithEntryPoint(tt.entry))
			if err != nil {
				t.Fatalf("NewShader: %v", err)
			}
			if err := shader.Validate(s.Source()); err != nil {
				// naga rejects some valid WGSL; the device compiler has the final say.
				t.Skipf("naga rejected %s: %v", tt.name, err)
			}
		})
	}
}
