package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend. It needs a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend. Buffers live in host memory, compute
	// dispatches run registered Go kernels and draws are recorded instead of rasterized.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// ParseBackendType maps a config or flag value to a backend type.
//
// Parameters:
//   - s: "wgpu" or "software"
//
// Returns:
//   - RendererBackendType: the backend type
//   - error: an error for any other value
func ParseBackendType(s string) (RendererBackendType, error) {
	switch s {
	case "wgpu", "":
		return BackendTypeWGPU, nil
	case "software":
		return BackendTypeSoftware, nil
	default:
		return 0, fmt.Errorf("renderer: unknown backend %q", s)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. May tear.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the main render pass.
// WebGPU guarantees 1 and 4, higher counts are adapter-dependent.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

// SurfaceSource supplies the native surface and its size to the wgpu backend.
// engine/window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// RendererBackend is the contract every backend implements. The Renderer resolves
// pipeline keys and forwards to it.
type RendererBackend interface {
	// Type returns the backend type.
	Type() RendererBackendType

	// ConfigureSurface prepares the render targets for a surface size.
	ConfigureSurface(width, height int) error

	// SetPresentMode takes effect at the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	RegisterRenderPipeline(p pipeline.Pipeline) error
	RegisterComputePipeline(p pipeline.Pipeline) error

	// CreateBuffer allocates a zero-filled buffer.
	CreateBuffer(label string, size uint64, usage buffer.Usage) (buffer.Buffer, error)

	// WriteBuffer queues a write into a buffer created by this backend.
	WriteBuffer(buf buffer.Buffer, offset uint64, data []byte) error

	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]buffer.Usage, sizeOverrides map[int]uint64) error

	BeginComputeFrame() error
	DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workgroupCount [3]uint32) error
	EndComputeFrame() error

	BeginFrame() error
	DrawCallIndirect(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, indirect buffer.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error
	EndFrame() error
	Present()

	// Release frees every device object held by the backend.
	Release()
}

// usageForBinding derives the buffer usage of a reflected buffer binding.
func usageForBinding(t wgpu.BufferBindingType) buffer.Usage {
	switch t {
	case wgpu.BufferBindingTypeUniform:
		return buffer.UsageUniform | buffer.UsageCopyDst
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return buffer.UsageStorage | buffer.UsageCopyDst
	default:
		return buffer.UsageCopyDst
	}
}

// checkWrite validates a write range against a buffer.
func checkWrite(buf buffer.Buffer, offset uint64, data []byte) error {
	if buf == nil {
		return ErrNilBuffer
	}
	if buf.Released() {
		return fmt.Errorf("%w: %s", ErrBufferReleased, buf.Label())
	}
	if offset+uint64(len(data)) > buf.Size() {
		return fmt.Errorf("%w: %s write [%d, %d) exceeds size %d",
			ErrOutOfBounds, buf.Label(), offset, offset+uint64(len(data)), buf.Size())
	}
	return nil
}
