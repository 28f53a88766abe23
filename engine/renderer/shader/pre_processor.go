// pre_processor.go implements the WGSL pre-processor. It replaces @oxy: annotations with
// struct sources from its registry or with generated binding declarations, and collects the
// binding declarations so callers can resolve binding indices by struct type.
package shader

import (
	"fmt"
	"strings"
)

// Include pairs an embedded WGSL struct definition with the WGSL type name emitted in
// generated declarations. Source may be empty for primitives such as f32.
type Include struct {
	// Source is the WGSL struct text injected by @oxy:include.
	Source string

	// Type is the WGSL type name used in @oxy:group declarations.
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]Include
	addressSpaceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor rewrites annotated WGSL into plain WGSL.
type PreProcessor interface {
	// Process replaces every annotation in source and returns the resulting WGSL.
	// Each struct is injected at most once even if included repeatedly.
	//
	// Parameters:
	//   - source: the annotated WGSL source
	//
	// Returns:
	//   - string: plain WGSL
	//   - error: an error naming the line of an unknown struct type or malformed annotation
	Process(source string) (string, error)

	// Declarations returns the group annotations found by the last Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the binding declarations
	Declarations() []Annotation

	// Register adds or replaces a struct type in the registry.
	//
	// Parameters:
	//   - key: the struct type key used in annotations
	//   - include: the struct source and WGSL type name
	Register(key AnnotationArg, include Include)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor seeded with the given struct registry.
//
// Parameters:
//   - includes: struct type keys mapped to their sources (nil safe)
//
// Returns:
//   - PreProcessor: the new pre-processor
func NewPreProcessor(includes map[AnnotationArg]Include) PreProcessor {
	p := &preProcessor{
		structRegistry: make(map[AnnotationArg]Include, len(includes)),
		addressSpaceRegistry: map[AnnotationArg]string{
			AnnotationArgUniform:          "var<uniform>",
			AnnotationArgStorageRead:      "var<storage, read>",
			AnnotationArgStorageReadWrite: "var<storage, read_write>",
		},
	}
	for k, v := range includes {
		p.structRegistry[k] = v
	}
	return p
}

func (p *preProcessor) Register(key AnnotationArg, include Include) {
	p.structRegistry[key] = include
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			key := a.Args[0]
			entry, ok := p.structRegistry[key]
			if !ok {
				return "", fmt.Errorf("line %d: unknown struct type %q in @oxy:include", a.Line, key)
			}
			if !included[key] && entry.Source != "" {
				out = append(out, strings.TrimRight(entry.Source, "\n"))
			}
			included[key] = true
		case AnnotationTypeBindingGroup:
			key := a.ElementType()
			entry, ok := p.structRegistry[key]
			if !ok {
				return "", fmt.Errorf("line %d: unknown struct type %q in @oxy:group", a.Line, key)
			}
			wgslType := entry.Type
			if strings.HasPrefix(string(a.Args[2]), "array<") {
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
