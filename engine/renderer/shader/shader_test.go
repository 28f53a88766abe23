package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testRecordStruct = `struct Record {
    position: vec3<f32>,
    _pad0: f32,
    rotation: vec4<f32>,
}`

const testComputeSource = `//@oxy:include record
//@oxy:group 0 0 storage_read_write records array<record>
//@oxy:group 0 1 storage_read phase array<f32>

@compute @workgroup_size(256)
fn MainCS(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= arrayLength(&records)) {
        return;
    }
    records[i].position.x = phase[i];
}
`

func testIncludes() map[AnnotationArg]Include {
	return map[AnnotationArg]Include{
		"record": {Source: testRecordStruct, Type: "Record"},
		"f32":    {Type: "f32"},
	}
}

func TestNewShaderCompute(t *testing.T) {
	s, err := NewShader("test_cs", ShaderTypeCompute,
		WithSource(testComputeSource),
		WithIncludes(testIncludes()),
		WithEntryPoint("MainCS"),
	)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}

	if s.EntryPoint() != "MainCS" {
		t.Errorf("entry point = %q, want MainCS", s.EntryPoint())
	}
	if got := s.WorkgroupSize(); got != [3]uint32{256, 1, 1} {
		t.Errorf("workgroup size = %v, want [256 1 1]", got)
	}
	if size, ok := s.StructSize("Record"); !ok || size != 32 {
		t.Errorf("StructSize(Record) = %d, %v, want 32, true", size, ok)
	}
	if !strings.Contains(s.Source(), "var<storage, read_write> records: array<Record>;") {
		t.Errorf("records declaration not generated:\n%s", s.Source())
	}
	if strings.Contains(s.Source(), "@oxy:") {
		t.Error("processed source still contains annotations")
	}

	desc := s.BindGroupLayoutDescriptor(0)
	if len(desc.Entries) != 2 {
		t.Fatalf("group 0 has %d entries, want 2", len(desc.Entries))
	}
	if desc.Entries[0].Buffer.Type != wgpu.BufferBindingTypeStorage {
		t.Errorf("binding 0 type = %v, want storage", desc.Entries[0].Buffer.Type)
	}
	if desc.Entries[0].Buffer.MinBindingSize != 32 {
		t.Errorf("binding 0 min size = %d, want 32", desc.Entries[0].Buffer.MinBindingSize)
	}
	if desc.Entries[1].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage {
		t.Errorf("binding 1 type = %v, want read-only storage", desc.Entries[1].Buffer.Type)
	}
	if desc.Entries[1].Visibility != wgpu.ShaderStageCompute {
		t.Errorf("binding 1 visibility = %v, want compute", desc.Entries[1].Visibility)
	}
	if b, ok := s.BindGroupFromVarName(0, "phase"); !ok || b != 1 {
		t.Errorf("BindGroupFromVarName(phase) = %d, %v", b, ok)
	}
	if len(s.Declarations()) != 2 {
		t.Errorf("declarations = %d, want 2", len(s.Declarations()))
	}
}

func TestNewShaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		typ     ShaderType
		options []ShaderBuilderOption
		want    error
	}{
		{
			name: "no source",
			typ:  ShaderTypeCompute,
			want: ErrNoSource,
		},
		{
			name:    "missing named entry point",
			typ:     ShaderTypeCompute,
			options: []ShaderBuilderOption{WithSource(testComputeSource), WithIncludes(testIncludes()), WithEntryPoint("Other")},
			want:    ErrEntryPointNotFound,
		},
		{
			name:    "wrong stage",
			typ:     ShaderTypeVertex,
			options: []ShaderBuilderOption{WithSource(testComputeSource), WithIncludes(testIncludes())},
			want:    ErrEntryPointNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShader("bad", tt.typ, tt.options...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewShaderUnknownInclude(t *testing.T) {
	_, err := NewShader("bad", ShaderTypeCompute, WithSource(testComputeSource))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error = %v, want unknown struct error on line 1", err)
	}
}

func TestParseEntryPoints(t *testing.T) {
	src := `
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
}

// @compute fn commented_out() {}

@vertex
fn vs_main(@builtin(instance_index) idx: u32) -> VertexOutput {
    var out: VertexOutput;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}

fn helper() -> f32 { return 1.0; }

@compute @workgroup_size(8, 4)
fn cs_main() {}
`
	got := parseEntryPoints(src)
	want := []EntryPoint{
		{Name: "vs_main", Stage: ShaderTypeVertex},
		{Name: "fs_main", Stage: ShaderTypeFragment},
		{Name: "cs_main", Stage: ShaderTypeCompute, WorkgroupSize: [3]uint32{8, 4, 1}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entry points %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseVertexLayouts(t *testing.T) {
	src := `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) normal: vec3<f32>,
}
`
	layouts := parseVertexLayouts(src)
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	l := layouts[0][0]
	if l.ArrayStride != 32 {
		t.Errorf("stride = %d, want 32", l.ArrayStride)
	}
	if len(l.Attributes) != 3 || l.Attributes[2].Offset != 24 || l.Attributes[2].ShaderLocation != 2 {
		t.Errorf("unexpected attributes %+v", l.Attributes)
	}
}

func TestResolveTypeLayout(t *testing.T) {
	known := computeStructSizes(parseStructBlocks(`
struct Outer { inner: Inner, scale: f32, }
struct Inner { a: vec3<f32>, }
struct Camera { view_proj: mat4x4<f32>, position: vec3<f32>, _pad: f32, }
`))
	tests := []struct {
		typeName string
		size     uint64
		ok       bool
	}{
		{"f32", 4, true},
		{"vec3<f32>", 12, true},
		{"Inner", 16, true},
		{"Outer", 32, true},
		{"Camera", 80, true},
		{"array<f32>", 4, true},
		{"array<vec3<f32>, 4>", 64, true},
		{"array<Inner, 2>", 32, true},
		{"Unknown", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			l, ok := resolveTypeLayout(tt.typeName, known)
			if ok != tt.ok || l.size != tt.size {
				t.Errorf("resolveTypeLayout(%q) = %d, %v, want %d, %v", tt.typeName, l.size, ok, tt.size, tt.ok)
			}
		})
	}
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		line    string
		want    AnnotationType
		wantErr bool
	}{
		{"let x = 1;", "", false},
		{"// plain comment", "", false},
		{"//@oxy:include dokaben_data", AnnotationTypeInclude, false},
		{"  // @oxy:group 1 0 storage_read records array<dokaben_data>", AnnotationTypeBindingGroup, false},
		{"//@oxy:include", "", true},
		{"//@oxy:group 0 0 private records f32", "", true},
		{"//@oxy:group x 0 uniform params f32", "", true},
		{"//@oxy:provider foo", "", true},
	}
	for _, tt := range tests {
		a, err := parseAnnotation(tt.line, 7)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		var got AnnotationType
		if a != nil {
			got = a.Type
		}
		if got != tt.want {
			t.Errorf("%q: type = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestPreProcessorIncludesOnce(t *testing.T) {
	pp := NewPreProcessor(testIncludes())
	out, err := pp.Process("//@oxy:include record\n//@oxy:include record\n//@oxy:include f32\n")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n := strings.Count(out, "struct Record"); n != 1 {
		t.Errorf("struct Record injected %d times, want 1", n)
	}
	if len(pp.Declarations()) != 0 {
		t.Errorf("include produced %d declarations", len(pp.Declarations()))
	}
}

func TestAnnotationElementType(t *testing.T) {
	a, err := parseAnnotation("//@oxy:group 0 1 storage_read phase array<f32>", 1)
	if err != nil {
		t.Fatal(err)
	}
	if a.ElementType() != "f32" || *a.Group != 0 || *a.Binding != 1 {
		t.Errorf("got element %q group %d binding %d", a.ElementType(), *a.Group, *a.Binding)
	}
}
