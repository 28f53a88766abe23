package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithSource sets the annotated WGSL source directly.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithSourceFromPath reads the annotated WGSL source from a file. It takes precedence over WithSource.
//
// Parameters:
//   - path: the file path of the WGSL source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source path
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.sourcePath = path
	}
}

// WithEntryPoint selects an entry point by name instead of the first one of the stage.
//
// Parameters:
//   - name: the WGSL function name
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point name
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryName = name
	}
}

// WithInclude registers a struct type for @oxy:include and @oxy:group annotations.
//
// Parameters:
//   - key: the struct type key used in annotations
//   - include: the struct source and WGSL type name
//
// Returns:
//   - ShaderBuilderOption: a function that registers the include
func WithInclude(key AnnotationArg, include Include) ShaderBuilderOption {
	return func(s *shader) {
		s.includes[key] = include
	}
}

// WithIncludes registers several struct types at once.
func WithIncludes(includes map[AnnotationArg]Include) ShaderBuilderOption {
	return func(s *shader) {
		for k, v := range includes {
			s.includes[k] = v
		}
	}
}

// WithValidation compiles the processed source with naga before the shader is returned.
//
// Parameters:
//   - enabled: whether to validate
//
// Returns:
//   - ShaderBuilderOption: a function that toggles validation
func WithValidation(enabled bool) ShaderBuilderOption {
	return func(s *shader) {
		s.validate = enabled
	}
}
