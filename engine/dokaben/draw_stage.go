package dokaben

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/model"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

type drawStage struct {
	r           renderer.Renderer
	label       string
	pipelineKey string
	args        buffer.Buffer
	camera      camera.Camera
	meshScale   mgl32.Vec3

	cameraProvider bind_group_provider.BindGroupProvider
	cameraBinding  int

	// boundMaterial is the material whose provider was built by this stage.
	boundMaterial    material.Material
	materialProvider bind_group_provider.BindGroupProvider
	recordsBinding   int
	paramsBinding    int

	lastArgs   GPUIndirectArgs
	lastBounds common.Bounds
}

// DrawStage issues the single instanced indirect draw of all records.
type DrawStage interface {
	// Draw recomputes the indirect arguments, refreshes the camera and draw uniforms and
	// encodes one DrawIndexedIndirect. A nil mesh draws zero indices. A nil material skips
	// the draw without error. Must run inside a render frame.
	//
	// Parameters:
	//   - mesh: the model drawn for every instance, or nil
	//   - mat: the material providing the pipeline key and base color, or nil
	//   - records: the records buffer read by the vertex shader
	//   - instanceCount: the number of instances
	//   - bounds: the culling volume of the draw
	//
	// Returns:
	//   - error: a bind group, write or draw error from the renderer
	Draw(mesh model.Model, mat material.Material, records buffer.Buffer, instanceCount int, bounds common.Bounds) error

	// LastArgs returns the arguments uploaded by the most recent draw.
	LastArgs() GPUIndirectArgs

	// LastBounds returns the culling volume of the most recent draw.
	LastBounds() common.Bounds

	// Release frees the camera and material uniforms and detaches the provider from the material.
	Release()
}

var _ DrawStage = &drawStage{}

// NewDrawStage creates the camera bind group from group 0 of a registered render pipeline.
// The args buffer stays owned by the caller.
//
// Parameters:
//   - r: the renderer holding the pipeline
//   - pipelineKey: the render pipeline used when a material names none
//   - label: prefix for bind group debug labels
//   - args: an Indirect|CopyDst buffer of at least IndirectArgsSize bytes
//   - cam: the camera whose uniform is uploaded each draw
//   - meshScale: the scale applied to every instance
//
// Returns:
//   - DrawStage: the stage
//   - error: a lookup or bind group error
func NewDrawStage(r renderer.Renderer, pipelineKey, label string, args buffer.Buffer, cam camera.Camera, meshScale mgl32.Vec3) (DrawStage, error) {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", renderer.ErrPipelineNotFound, pipelineKey)
	}
	cameraBinding, ok := p.Shader(shader.ShaderTypeVertex).BindGroupFromVarName(0, "camera")
	if !ok {
		return nil, fmt.Errorf("dokaben: %q declares no group 0 camera uniform", pipelineKey)
	}

	provider := bind_group_provider.NewBindGroupProvider(label + " Camera")
	desc, err := r.BindGroupLayoutDescriptor(pipelineKey, 0)
	if err != nil {
		return nil, err
	}
	if err := r.InitBindGroup(provider, desc, nil, nil); err != nil {
		provider.Release()
		return nil, fmt.Errorf("dokaben: camera bind group: %w", err)
	}

	return &drawStage{
		r:              r,
		label:          label,
		pipelineKey:    pipelineKey,
		args:           args,
		camera:         cam,
		meshScale:      meshScale,
		cameraProvider: provider,
		cameraBinding:  cameraBinding,
	}, nil
}

func (d *drawStage) Draw(mesh model.Model, mat material.Material, records buffer.Buffer, instanceCount int, bounds common.Bounds) error {
	if mat == nil {
		common.Logger().Debug("dokaben draw skipped", "label", d.label, "reason", "no material")
		return nil
	}
	key := mat.PipelineKey()
	if key == "" {
		key = d.pipelineKey
	}
	if err := d.bindMaterial(key, mat, records); err != nil {
		return err
	}

	var meshProvider bind_group_provider.BindGroupProvider
	args := GPUIndirectArgs{InstanceCount: uint32(instanceCount)}
	if mesh != nil {
		meshProvider = mesh.MeshProvider()
		args.IndexCount = uint32(mesh.IndexCount())
	}

	uniform := d.camera.Uniform()
	params := material.GPUDrawParams{MeshScale: d.meshScale, BaseColor: mat.BaseColor()}
	writes := []bind_group_provider.BufferWrite{
		{Provider: d.cameraProvider, Binding: d.cameraBinding, Data: uniform.Marshal()},
		{Provider: d.materialProvider, Binding: d.paramsBinding, Data: params.Marshal()},
	}
	if err := d.r.WriteBuffer(d.args, 0, args.Marshal()); err != nil {
		return fmt.Errorf("dokaben: upload indirect args: %w", err)
	}
	if err := d.r.WriteBuffers(writes); err != nil {
		return fmt.Errorf("dokaben: upload draw uniforms: %w", err)
	}

	bindGroups := []bind_group_provider.BindGroupProvider{d.cameraProvider, d.materialProvider}
	if err := d.r.DrawCallIndirect(key, meshProvider, d.args, bindGroups); err != nil {
		return err
	}
	d.lastArgs, d.lastBounds = args, bounds
	return nil
}

// bindMaterial builds the group 1 provider the first time a material is drawn and attaches
// it to the material. Drawing a different material releases the previous provider.
func (d *drawStage) bindMaterial(key string, mat material.Material, records buffer.Buffer) error {
	if mat == d.boundMaterial && d.materialProvider != nil && d.materialProvider.Buffer(d.recordsBinding) == records {
		return nil
	}
	d.releaseMaterial()

	p := d.r.Pipeline(key)
	if p == nil {
		return fmt.Errorf("%w: %q", renderer.ErrPipelineNotFound, key)
	}
	vs := p.Shader(shader.ShaderTypeVertex)
	recordsBinding, ok := vs.BindGroupFromVarName(1, "dokaben_data")
	if !ok {
		return fmt.Errorf("dokaben: %q declares no group 1 dokaben_data", key)
	}
	paramsBinding, ok := vs.BindGroupFromVarName(1, "draw_params")
	if !ok {
		return fmt.Errorf("dokaben: %q declares no group 1 draw_params", key)
	}

	provider := bind_group_provider.NewBindGroupProvider(d.label+" "+mat.Name(),
		bind_group_provider.WithBorrowedBuffer(recordsBinding, records),
	)
	desc, err := d.r.BindGroupLayoutDescriptor(key, 1)
	if err != nil {
		return err
	}
	if err := d.r.InitBindGroup(provider, desc, nil, nil); err != nil {
		provider.Release()
		return fmt.Errorf("dokaben: material bind group: %w", err)
	}

	mat.SetBindGroupProvider(provider)
	d.boundMaterial, d.materialProvider = mat, provider
	d.recordsBinding, d.paramsBinding = recordsBinding, paramsBinding
	return nil
}

func (d *drawStage) releaseMaterial() {
	if d.materialProvider == nil {
		return
	}
	if d.boundMaterial.BindGroupProvider() == d.materialProvider {
		d.boundMaterial.SetBindGroupProvider(nil)
	}
	d.materialProvider.Release()
	d.boundMaterial, d.materialProvider = nil, nil
}

func (d *drawStage) LastArgs() GPUIndirectArgs {
	return d.lastArgs
}

func (d *drawStage) LastBounds() common.Bounds {
	return d.lastBounds
}

func (d *drawStage) Release() {
	d.releaseMaterial()
	d.cameraProvider.Release()
}
