package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSurface sets the window the wgpu backend presents to. Required for BackendTypeWGPU.
//
// Parameters:
//   - s: the surface source, usually an engine/window.Window
//
// Returns:
//   - RendererBuilderOption: a function that sets the surface source
func WithSurface(s SurfaceSource) RendererBuilderOption {
	return func(r *renderer) {
		r.surface = s
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the sample count of the main render pass. The default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceFallbackAdapter asks wgpu for a CPU fallback adapter such as SwiftShader or
// lavapipe instead of a hardware GPU. This is unrelated to BackendTypeSoftware.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the fallback adapter option to a renderer
func WithForceFallbackAdapter(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithSoftwareKernel registers a Go kernel for a compute entry point on the software backend.
// Ignored by the wgpu backend.
//
// Parameters:
//   - entryPoint: the WGSL entry point name the kernel stands in for
//   - k: the kernel
//
// Returns:
//   - RendererBuilderOption: a function that registers the kernel
func WithSoftwareKernel(entryPoint string, k Kernel) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareKernels[entryPoint] = k
	}
}

// WithSoftwareWorkers sets the number of pool workers for software compute dispatch.
// Zero or less uses GOMAXPROCS.
func WithSoftwareWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareWorkers = n
	}
}

// WithSoftwareMemoryLimit caps the bytes of live buffers on the software backend.
// Zero means no limit.
func WithSoftwareMemoryLimit(bytes uint64) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareMemoryLimit = bytes
	}
}
