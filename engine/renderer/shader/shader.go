package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeCompute is a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is a shader containing a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment is a shader containing a @fragment entry point, paired with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// visibility returns the wgpu stage flag matching the shader type.
func (t ShaderType) visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

var (
	// ErrNoSource is returned by NewShader when neither WithSource nor WithSourceFromPath is given.
	ErrNoSource = errors.New("shader: no source")

	// ErrEntryPointNotFound is returned by NewShader when the module has no entry point of
	// the requested stage, or none with the requested name.
	ErrEntryPointNotFound = errors.New("shader: entry point not found")
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	shaderType ShaderType

	// inputs collected by options
	rawSource  string
	sourcePath string
	entryName  string
	includes   map[AnnotationArg]Include
	validate   bool

	source                     string
	entryPoint                 EntryPoint
	entryPoints                []EntryPoint
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	structSizes                map[string]wgslTypeLayout
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed WGSL module reflected for one pipeline stage. It exposes the
// chosen entry point, bind group layouts, vertex layouts and struct sizes needed by the
// renderer to create pipelines and size buffers.
type Shader interface {
	// Key returns the unique identifier of the shader.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the pre-processed WGSL source.
	//
	// Returns:
	//   - string: plain WGSL with all annotations expanded
	Source() string

	// ShaderType returns the stage this shader was created for.
	//
	// Returns:
	//   - ShaderType: vertex, fragment or compute
	ShaderType() ShaderType

	// EntryPoint returns the name of the selected entry point.
	//
	// Returns:
	//   - string: the entry point function name
	EntryPoint() string

	// EntryPoints returns every stage function in the module, including ones of other stages.
	//
	// Returns:
	//   - []EntryPoint: the entry points in source order
	EntryPoints() []EntryPoint

	// WorkgroupSize returns the workgroup size of the selected compute entry point,
	// or [0, 0, 0] for render stages.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// BindGroupLayoutDescriptor returns the reflected layout of one group, or an empty descriptor.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected group layout.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at a group and binding, or "".
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index
	//
	// Returns:
	//   - string: the variable name
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName returns the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: whether the variable was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayout returns the vertex buffer layout at an index, or nil.
	//
	// Parameters:
	//   - key: the layout index in order of appearance
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layout
	VertexLayout(key int) []wgpu.VertexBufferLayout

	// VertexLayouts returns every reflected vertex buffer layout.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by index
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// StructSize returns the host-shareable byte size of a WGSL struct declared in the module.
	//
	// Parameters:
	//   - name: the WGSL struct name
	//
	// Returns:
	//   - uint64: the struct size rounded to its alignment
	//   - bool: whether the struct was found and resolved
	StructSize(name string) (uint64, bool)

	// Declarations returns the @oxy:group annotations of the source so callers can find
	// binding indices by struct type.
	//
	// Returns:
	//   - []Annotation: the binding declarations in source order
	Declarations() []Annotation

	// Module returns the shader module descriptor passed to the wgpu device.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor with label and WGSL code
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL module for one stage.
// When no entry point name is given the first entry point of the requested stage is used.
//
// Parameters:
//   - key: the unique identifier of the shader
//   - shaderType: the stage to select an entry point for
//   - options: source, includes, entry point and validation options
//
// Returns:
//   - Shader: the reflected shader
//   - error: ErrNoSource, ErrEntryPointNotFound, ErrInvalidWGSL, or a read or pre-processing error
func NewShader(key string, shaderType ShaderType, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		includes:   make(map[AnnotationArg]Include),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.sourcePath != "" {
		data, err := os.ReadFile(s.sourcePath)
		if err != nil {
			return nil, fmt.Errorf("shader %s: read %q: %w", key, s.sourcePath, err)
		}
		s.rawSource = string(data)
	}
	if s.rawSource == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, key)
	}

	s.pp = NewPreProcessor(s.includes)
	source, err := s.pp.Process(s.rawSource)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = source

	if err := s.reflect(); err != nil {
		return nil, err
	}

	if s.validate {
		if err := Validate(s.source); err != nil {
			return nil, fmt.Errorf("shader %s: %w", key, err)
		}
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label:          s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.source},
	}
	return s, nil
}

// reflect selects the entry point and extracts layout metadata from the processed source.
func (s *shader) reflect() error {
	s.entryPoints = parseEntryPoints(s.source)

	found := false
	for _, ep := range s.entryPoints {
		if ep.Stage != s.shaderType {
			continue
		}
		if s.entryName == "" || ep.Name == s.entryName {
			s.entryPoint = ep
			found = true
			break
		}
	}
	if !found {
		name := s.entryName
		if name == "" {
			name = "@" + s.shaderType.String()
		}
		return fmt.Errorf("%w: %s in shader %s", ErrEntryPointNotFound, name, s.key)
	}

	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(s.source)
	} else {
		s.vertexLayouts = make(map[int][]wgpu.VertexBufferLayout)
	}
	s.structSizes = computeStructSizes(parseStructBlocks(stripComments(s.source)))
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(s.source, s.shaderType.visibility())
	return nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint.Name
}

func (s *shader) EntryPoints() []EntryPoint {
	return s.entryPoints
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.entryPoint.WorkgroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayout(key int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[key]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) StructSize(name string) (uint64, bool) {
	l, ok := s.structSizes[name]
	return l.size, ok
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
