package renderer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrPipelineNotFound is returned when a pipeline key has not been registered.
	ErrPipelineNotFound = errors.New("renderer: pipeline not found")

	// ErrBindGroupNotFound is returned when a pipeline's shaders declare no bindings in a group.
	ErrBindGroupNotFound = errors.New("renderer: bind group not declared by pipeline")

	// ErrNoSurface is returned by NewRenderer when the wgpu backend has no SurfaceSource.
	ErrNoSurface = errors.New("renderer: wgpu backend needs a surface source")

	// ErrOutOfMemory is returned by CreateBuffer when the backend cannot fit the allocation.
	ErrOutOfMemory = errors.New("renderer: out of buffer memory")

	// ErrOutOfBounds is returned when a write does not fit the target buffer.
	ErrOutOfBounds = errors.New("renderer: write out of bounds")

	// ErrNilBuffer is returned when a write or draw targets a nil buffer.
	ErrNilBuffer = errors.New("renderer: nil buffer")

	// ErrBufferReleased is returned when a write targets a released buffer.
	ErrBufferReleased = errors.New("renderer: buffer released")

	// ErrForeignBuffer is returned when a buffer created by another backend is passed in.
	ErrForeignBuffer = errors.New("renderer: buffer belongs to another backend")

	// ErrNoFrame is returned by frame operations called outside Begin/End.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrFrameInProgress is returned by Begin calls while the previous frame is still open.
	ErrFrameInProgress = errors.New("renderer: frame already in progress")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	surface              SurfaceSource
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	softwareKernels      map[string]Kernel
	softwareWorkers      int
	softwareMemoryLimit  uint64
}

// Renderer is the high-level rendering API. It caches pipelines by key and forwards
// resource creation, compute dispatch and drawing to the selected backend.
//
// The frame contract is:
//  1. BeginComputeFrame, any number of DispatchCompute, EndComputeFrame
//  2. BeginFrame, any number of DrawCallIndirect, EndFrame
//  3. Present
//
// Work is submitted to one queue in that order, so a draw always sees the results
// of the compute frame submitted before it.
type Renderer interface {
	// Backend returns the backend in use. The software backend can be type-asserted to
	// SoftwareRendererBackend for inspection.
	//
	// Returns:
	//   - RendererBackend: the active backend
	Backend() RendererBackend

	// Pipeline returns the registered pipeline for a key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline or nil
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: pipelines keyed by pipeline key
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines validates each pipeline, creates its backend objects and caches it.
	// Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: the first validation or creation error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// BindGroupLayoutDescriptor returns the layout a registered pipeline uses for one group.
	// For render pipelines the vertex and fragment layouts are merged, so a bind group built
	// from the result is compatible with the pipeline.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline key
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
	//   - error: ErrPipelineNotFound if the key is unknown, ErrBindGroupNotFound if no shader of
	//     the pipeline declares the group
	BindGroupLayoutDescriptor(pipelineKey string, group int) (wgpu.BindGroupLayoutDescriptor, error)

	// Resize reconfigures the surface for a new size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the render targets cannot be recreated
	Resize(width, height int) error

	// SetPresentMode changes the present mode. A Resize applies it.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// CreateBuffer allocates a zero-filled buffer owned by the caller.
	//
	// Parameters:
	//   - label: the debug label
	//   - size: the size in bytes
	//   - usage: the usage flags
	//
	// Returns:
	//   - buffer.Buffer: the new buffer
	//   - error: ErrOutOfMemory or a device error
	CreateBuffer(label string, size uint64, usage buffer.Usage) (buffer.Buffer, error)

	// WriteBuffer queues a write into a buffer.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrOutOfBounds, ErrBufferReleased or ErrNilBuffer
	WriteBuffer(buf buffer.Buffer, offset uint64, data []byte) error

	// WriteBuffers queues every write in order. Writes naming a binding with no buffer are skipped.
	//
	// Parameters:
	//   - writes: the writes to apply
	//
	// Returns:
	//   - error: the first failing write
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// InitMeshBuffers creates the vertex and index buffers of a mesh provider.
	//
	// Parameters:
	//   - provider: the mesh provider
	//   - vertexData: raw vertex bytes
	//   - indexData: raw u32 index bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: a buffer creation error
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the buffers a provider is missing for a layout and builds its
	// bind group. Buffers already set on the provider are bound as they are.
	//
	// Parameters:
	//   - provider: the provider to fill in
	//   - descriptor: the layout descriptor
	//   - usageOverrides: extra usage flags per binding (nil safe)
	//   - sizeOverrides: buffer sizes per binding instead of MinBindingSize (nil safe)
	//
	// Returns:
	//   - error: a buffer or bind group creation error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]buffer.Usage, sizeOverrides map[int]uint64) error

	// BeginComputeFrame opens the command encoder for the frame's compute dispatches.
	BeginComputeFrame() error

	// DispatchCompute encodes one dispatch of a registered compute pipeline with the provider's
	// bind group at group 0.
	//
	// Parameters:
	//   - pipelineKey: the compute pipeline key
	//   - provider: the bind group provider for group 0
	//   - workgroupCount: the x, y and z workgroup counts
	//
	// Returns:
	//   - error: ErrPipelineNotFound, ErrNoFrame or a backend error
	DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workgroupCount [3]uint32) error

	// EndComputeFrame submits the compute frame.
	EndComputeFrame() error

	// BeginFrame acquires the next surface texture and begins the main render pass.
	BeginFrame() error

	// DrawCallIndirect encodes one indexed indirect draw. The arguments are read from the
	// first 20 bytes of indirect when the draw executes.
	//
	// Parameters:
	//   - pipelineKey: the render pipeline key
	//   - mesh: the provider holding vertex and index buffers
	//   - indirect: the buffer holding DrawIndexedIndirect arguments
	//   - bindGroups: providers bound at groups 0..n-1
	//
	// Returns:
	//   - error: ErrPipelineNotFound, ErrNoFrame or a backend error
	DrawCallIndirect(pipelineKey string, mesh bind_group_provider.BindGroupProvider, indirect buffer.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits it. Present displays it.
	EndFrame() error

	// Present presents the surface and releases the frame's surface texture.
	Present()

	// Release frees every cached pipeline and the backend. The renderer is unusable afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer for a backend type. The wgpu backend needs WithSurface.
//
// Parameters:
//   - backendType: the backend to create
//   - options: functional options for the surface, present mode, MSAA and software backend
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoSurface or a backend creation error
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		backendType:     backendType,
		softwareKernels: make(map[string]Kernel),
	}
	for _, opt := range options {
		opt(r)
	}

	width, height := 0, 0
	switch backendType {
	case BackendTypeSoftware:
		sw := newSoftwareRendererBackend(r.softwareWorkers, r.softwareMemoryLimit)
		for entry, k := range r.softwareKernels {
			sw.RegisterKernel(entry, k)
		}
		r.backend = sw
	case BackendTypeWGPU:
		if r.surface == nil {
			return nil, ErrNoSurface
		}
		msaa := MSAA4x
		if r.pendingMSAA != nil {
			msaa = *r.pendingMSAA
		}
		b, err := newWGPURendererBackend(r.surface.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
		if err != nil {
			return nil, err
		}
		r.backend = b
		width, height = r.surface.Width(), r.surface.Height()
	default:
		return nil, fmt.Errorf("renderer: unsupported backend %s", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}

	common.Logger().Info("renderer created", "backend", backendType.String())
	return r, nil
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Resize(width, height int) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, v := range r.pipelineCache {
		out[k] = v
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := p.Validate(); err != nil {
			return err
		}
		var err error
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			err = r.backend.RegisterComputePipeline(p)
		case pipeline.PipelineTypeRender:
			err = r.backend.RegisterRenderPipeline(p)
		}
		if err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
		common.Logger().Debug("pipeline registered", "pipeline", key, "type", p.Type().String())
	}
	return nil
}

func (r *renderer) BindGroupLayoutDescriptor(pipelineKey string, group int) (wgpu.BindGroupLayoutDescriptor, error) {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("%w: %q", ErrPipelineNotFound, pipelineKey)
	}
	desc, ok := pipelineBindGroupLayouts(p)[group]
	if !ok {
		return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("%w: pipeline %q group %d", ErrBindGroupNotFound, pipelineKey, group)
	}
	return desc, nil
}

func (r *renderer) CreateBuffer(label string, size uint64, usage buffer.Usage) (buffer.Buffer, error) {
	return r.backend.CreateBuffer(label, size, usage)
}

func (r *renderer) WriteBuffer(buf buffer.Buffer, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		if err := r.backend.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]buffer.Usage, sizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, usageOverrides, sizeOverrides)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workgroupCount [3]uint32) error {
	p := r.Pipeline(pipelineKey)
	if p == nil || p.Type() != pipeline.PipelineTypeCompute {
		return fmt.Errorf("%w: compute %q", ErrPipelineNotFound, pipelineKey)
	}
	return r.backend.DispatchCompute(p, provider, workgroupCount)
}

func (r *renderer) EndComputeFrame() error {
	return r.backend.EndComputeFrame()
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCallIndirect(pipelineKey string, mesh bind_group_provider.BindGroupProvider, indirect buffer.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil || p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("%w: render %q", ErrPipelineNotFound, pipelineKey)
	}
	if indirect == nil {
		return ErrNilBuffer
	}
	return r.backend.DrawCallIndirect(p, mesh, indirect, bindGroups)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}

// pipelineBindGroupLayouts returns the group layouts of a pipeline, merging vertex and
// fragment visibility for render pipelines.
func pipelineBindGroupLayouts(p pipeline.Pipeline) map[int]wgpu.BindGroupLayoutDescriptor {
	if p.Type() == pipeline.PipelineTypeCompute {
		return p.Shader(shader.ShaderTypeCompute).BindGroupLayoutDescriptors()
	}
	return mergeBindGroupLayouts(
		p.Shader(shader.ShaderTypeVertex).BindGroupLayoutDescriptors(),
		p.Shader(shader.ShaderTypeFragment).BindGroupLayoutDescriptors(),
	)
}

// mergeBindGroupLayouts unions the group layouts of two stages. Entries present in both
// stages get the union of their visibility flags.
func mergeBindGroupLayouts(a, b map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(a)+len(b))
	for _, src := range []map[int]wgpu.BindGroupLayoutDescriptor{a, b} {
		for g, desc := range src {
			entries := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g].Entries {
				entries[e.Binding] = e
			}
			for _, e := range desc.Entries {
				if existing, ok := entries[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					e = existing
				}
				entries[e.Binding] = e
			}
			list := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
			for _, e := range entries {
				list = append(list, e)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: list}
		}
	}
	return merged
}
