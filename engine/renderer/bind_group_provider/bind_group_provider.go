package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label used to name every GPU resource created for this provider.
	label string

	// bindGroup is the GPU bind group created by the wgpu backend, or nil under the software backend
	// and before initialization.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the layout the bind group was created against, or nil if not initialized.
	bindGroupLayout *wgpu.BindGroupLayout

	// buffers holds the buffers bound to each binding index.
	buffers map[int]buffer.Buffer
	// borrowed marks bindings whose buffer is owned elsewhere. Release skips them.
	borrowed map[int]bool

	// vertexBuffer and indexBuffer are set by Renderer.InitMeshBuffers for mesh providers.
	vertexBuffer buffer.Buffer
	indexBuffer  buffer.Buffer
	// indexCount is the number of u32 indices in indexBuffer.
	indexCount int
}

// BindGroupProvider describes the GPU resources one bind group (or one mesh) needs.
// Components hold a provider and the Renderer fills it in during initialization.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a unique label
//  2. Buffers owned by another component are attached with SetBuffer (borrowed)
//  3. Renderer.InitBindGroup creates the remaining buffers from a shader layout and builds the bind group
//  4. Renderer.WriteBuffers updates uniform contents each frame
//  5. Release frees everything the provider owns, leaving borrowed buffers alone
type BindGroupProvider interface {
	// Release frees every GPU resource owned by this provider. Borrowed buffers are detached
	// but not released. Safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the wgpu bind group, or nil if not created by the wgpu backend.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the wgpu bind group layout, or nil if not created.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer attached to a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - buffer.Buffer: the buffer or nil
	Buffer(binding int) buffer.Buffer

	// Buffers returns all attached buffers keyed by binding index.
	//
	// Returns:
	//   - map[int]buffer.Buffer: the buffers keyed by binding index
	Buffers() map[int]buffer.Buffer

	// Borrowed reports whether the buffer at binding is owned by another component.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - bool: true if Release must not free the buffer
	Borrowed(binding int) bool

	// VertexBuffer returns the vertex buffer, or nil if not a mesh provider.
	//
	// Returns:
	//   - buffer.Buffer: the vertex buffer or nil
	VertexBuffer() buffer.Buffer

	// IndexBuffer returns the u32 index buffer, or nil if not a mesh provider.
	//
	// Returns:
	//   - buffer.Buffer: the index buffer or nil
	IndexBuffer() buffer.Buffer

	// IndexCount returns the number of indices for indexed draws.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// SetBindGroup stores the bind group created by the wgpu backend.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores the layout created by the wgpu backend.
	//
	// Parameters:
	//   - bgl: the created layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer attaches a buffer owned by another component to a binding index.
	// The provider never releases it.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the borrowed buffer
	SetBuffer(binding int, buf buffer.Buffer)

	// SetOwnedBuffer attaches a buffer the provider owns and releases with itself.
	// Called by Renderer.InitBindGroup for buffers it creates.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the owned buffer
	SetOwnedBuffer(binding int, buf buffer.Buffer)

	// SetVertexBuffer stores the owned vertex buffer.
	//
	// Parameters:
	//   - buf: the vertex buffer
	SetVertexBuffer(buf buffer.Buffer)

	// SetIndexBuffer stores the owned index buffer.
	//
	// Parameters:
	//   - buf: the index buffer
	SetIndexBuffer(buf buffer.Buffer)

	// SetIndexCount sets the number of indices for indexed draws.
	//
	// Parameters:
	//   - count: the index count
	SetIndexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider. GPU resources are attached later by the Renderer
// or through SetBuffer.
//
// Parameters:
//   - label: the debug label applied to every resource created for this provider
//   - options: functional options to pre-populate the provider
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[int]buffer.Buffer),
		borrowed: make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) buffer.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]buffer.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) Borrowed(binding int) bool {
	return p.borrowed[binding]
}

func (p *bindGroupProvider) VertexBuffer() buffer.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() buffer.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf buffer.Buffer) {
	p.buffers[binding] = buf
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) SetOwnedBuffer(binding int, buf buffer.Buffer) {
	p.buffers[binding] = buf
	delete(p.borrowed, binding)
}

func (p *bindGroupProvider) SetVertexBuffer(buf buffer.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf buffer.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	for binding, buf := range p.buffers {
		if buf != nil && !p.borrowed[binding] {
			buf.Release()
		}
		delete(p.buffers, binding)
		delete(p.borrowed, binding)
	}

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
