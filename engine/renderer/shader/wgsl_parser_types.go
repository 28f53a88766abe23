package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo pairs a wgpu vertex format with its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslTypeLayout is the host-shareable size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// EntryPoint describes one stage function found in a WGSL module.
type EntryPoint struct {
	// Name is the WGSL function name.
	Name string

	// Stage is the stage attribute of the function.
	Stage ShaderType

	// WorkgroupSize is the @workgroup_size of a compute entry point, with omitted
	// dimensions set to 1. It is zero for render stages.
	WorkgroupSize [3]uint32
}
