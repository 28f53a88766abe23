// annotations.go defines the @oxy: annotation syntax understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments. They inject shared struct definitions and
// generate @group/@binding declarations so that Go GPU types and every shader that reads
// them agree on one layout.
//
// Syntax:
//
//	//@oxy:include <struct_type>
//	//@oxy:group <group> <binding> <address_space> <var_name> <type>
//
// <type> is a registered struct type key, optionally wrapped as array<key>.
// <address_space> is one of uniform, storage_read or storage_read_write.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude is replaced by the WGSL source of a registered struct.
	// It produces no declaration.
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup is replaced by a generated @group/@binding variable and is
	// recorded in the declarations list so callers can find a binding by its struct type.
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	// Type is include or group.
	Type AnnotationType

	// Args depends on Type:
	//   - include: [0] = struct type key
	//   - group:   [0] = address space, [1] = var name, [2] = type (key or array<key>)
	Args []AnnotationArg

	// Line is the 1-based source line, used in error messages.
	Line int

	// Group and Binding are set for group annotations only.
	Group   *int
	Binding *int
}

// AnnotationArg is a single annotation argument: a struct type key, an address space, or a variable name.
type AnnotationArg string

// Address space arguments accepted by group annotations.
const (
	AnnotationArgUniform          AnnotationArg = "uniform"
	AnnotationArgStorageRead      AnnotationArg = "storage_read"
	AnnotationArgStorageReadWrite AnnotationArg = "storage_read_write"
)

var validAddressSpaces = []AnnotationArg{
	AnnotationArgUniform,
	AnnotationArgStorageRead,
	AnnotationArgStorageReadWrite,
}

// ElementType returns the struct type key of a group annotation with any array<> wrapper removed.
// Returns an empty string for other annotation types.
//
// Returns:
//   - AnnotationArg: the bare struct type key
func (a Annotation) ElementType() AnnotationArg {
	if a.Type != AnnotationTypeBindingGroup || len(a.Args) < 3 {
		return ""
	}
	typeArg := string(a.Args[2])
	if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
		typeArg = strings.TrimSuffix(inner, ">")
	}
	return AnnotationArg(typeArg)
}

// parseAnnotation parses one source line. A line without the prefix yields (nil, nil).
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a syntax error with the line number
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(strings.TrimPrefix(trimmed, "//")), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy:include takes exactly one struct type", lineNum)
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy:group takes group, binding, address space, name and type", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group %q", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding %q", lineNum, args[2])
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
