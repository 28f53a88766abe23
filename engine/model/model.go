package model

import (
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
)

// model is the implementation of the Model interface.
type model struct {
	name                  string
	meshProvider          bind_group_provider.BindGroupProvider
	boundingRadius        float32
	vertexData, indexData []byte
	indexCount            int
}

// Model is a GPU-ready mesh: CPU side vertex and index bytes plus the BindGroupProvider that
// holds the uploaded vertex and index buffers once Renderer.InitMeshBuffers has run.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// MeshProvider retrieves the provider holding the vertex and index buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// VertexData retrieves the serialized vertex bytes.
	//
	// Returns:
	//   - []byte: vertex data, GPUVertex stride
	VertexData() []byte

	// IndexData retrieves the serialized u32 index bytes.
	//
	// Returns:
	//   - []byte: index data
	IndexData() []byte

	// IndexCount retrieves the number of indices drawn per instance.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius retrieves the radius of the sphere around the model origin that holds every vertex.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Uploaded reports whether the mesh provider already holds a vertex buffer.
	//
	// Returns:
	//   - bool: true after Renderer.InitMeshBuffers succeeded
	Uploaded() bool

	// Release frees the GPU buffers held by the mesh provider. The CPU data is kept so the
	// model can be uploaded again.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model with the provided options. A mesh provider labelled after the
// model is created when none is given.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{name: "model"}
	for _, opt := range options {
		opt(m)
	}
	if m.meshProvider == nil {
		m.meshProvider = bind_group_provider.NewBindGroupProvider(m.name + " Mesh")
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Uploaded() bool {
	return m.meshProvider.VertexBuffer() != nil
}

func (m *model) Release() {
	m.meshProvider.Release()
}
