package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL vertex input types to wgpu vertex formats.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

var (
	// structBlockRegex captures a struct name and its body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex  = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures a member name and type after any attributes.
	// The type capture is greedy so array<T, N> stays whole.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	// entryPointRegex captures the attribute list in front of a fn declaration and the fn name.
	entryPointRegex = regexp.MustCompile(`((?:@\w+(?:\s*\([^)]*\))?\s*)+)fn\s+(\w+)`)

	// workgroupSizeRegex captures 1 to 3 dimensions from @workgroup_size(x[, y[, z]]).
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, address space, name and type of a
	// declaration like: @group(0) @binding(1) var<storage, read_write> records: array<DokabenData>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoints returns every @vertex, @fragment and @compute function in source
// order. Functions without a stage attribute are ignored.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - []EntryPoint: the entry points found
func parseEntryPoints(source string) []EntryPoint {
	cleaned := stripComments(source)
	var out []EntryPoint
	for _, m := range entryPointRegex.FindAllStringSubmatch(cleaned, -1) {
		attrs, name := m[1], m[2]
		ep := EntryPoint{Name: name}
		switch {
		case strings.Contains(attrs, "@compute"):
			ep.Stage = ShaderTypeCompute
			ep.WorkgroupSize = parseWorkgroupSize(attrs)
		case strings.Contains(attrs, "@vertex"):
			ep.Stage = ShaderTypeVertex
		case strings.Contains(attrs, "@fragment"):
			ep.Stage = ShaderTypeFragment
		default:
			continue
		}
		out = append(out, ep)
	}
	return out
}

// parseWorkgroupSize reads @workgroup_size from an attribute list.
// Missing dimensions default to 1, and a missing attribute yields [1, 1, 1].
func parseWorkgroupSize(attrs string) [3]uint32 {
	size := [3]uint32{1, 1, 1}
	m := workgroupSizeRegex.FindStringSubmatch(attrs)
	if m == nil {
		return size
	}
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(m[i+1], 10, 32); err == nil {
			size[i] = uint32(v)
		}
	}
	return size
}

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, that is
// a struct with @location members and no @builtin member. Structs with a member type
// that is not a vertex format are skipped.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by their order of appearance
func parseVertexLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	result := make(map[int][]wgpu.VertexBufferLayout)
	idx := 0
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isVertexInputStruct(ps) {
			continue
		}
		layout, ok := buildVertexBufferLayout(ps)
		if !ok {
			continue
		}
		result[idx] = []wgpu.VertexBufferLayout{layout}
		idx++
	}
	return result
}

// parseBindGroupLayouts turns every buffer declaration into a bind group layout entry
// with the given visibility. MinBindingSize is set from the resolved struct layout; for
// runtime-sized arrays it is the element stride. Handle types such as textures and
// samplers are not reflected.
//
// Parameters:
//   - source: the WGSL source
//   - visibility: the stage visibility set on every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group then binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := stripComments(source)
	sizes := computeStructSizes(parseStructBlocks(cleaned))

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		varName := strings.TrimSpace(m[4])
		typeName := strings.TrimSpace(m[5])

		bindingType, ok := classifyBuffer(addressSpace)
		if !ok {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(binding),
			Visibility: visibility,
		}
		entry.Buffer.Type = bindingType
		if layout, ok := resolveTypeLayout(typeName, sizes); ok {
			entry.Buffer.MinBindingSize = layout.size
		}
		groups[group] = append(groups[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, names
}

// parseStructBlocks parses every struct in comment-free WGSL source.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	out := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		out = append(out, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return out
}

// parseStructFields splits a struct body into members, recording @location and @builtin.
func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		f := parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(part),
		}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			if loc, err := strconv.Atoi(lm[1]); err == nil {
				f.location = loc
			}
		}
		fields = append(fields, f)
	}
	return fields
}
