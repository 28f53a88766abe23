// Package dokaben animates a large population of flipping tiles: a compute kernel rewrites each
// tile's rotation every frame and one instanced indirect draw renders them all.
package dokaben

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/model"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	// DefaultComputePipelineKey is the cache key of the animation pipeline.
	DefaultComputePipelineKey = "dokaben_compute"
	// DefaultRenderPipelineKey is the cache key of the instanced draw pipeline.
	DefaultRenderPipelineKey = "dokaben_render"

	vertexEntryPoint   = "MainVS"
	fragmentEntryPoint = "MainPS"
)

type dokaben struct {
	mu *sync.Mutex
	id uuid.UUID

	state State

	capacity           int
	animationSpeed     float32
	meshScale          mgl32.Vec3
	bounds             common.Bounds
	seed               uint64
	validateShaders    bool
	computePipelineKey string

	mesh     model.Model
	material material.Material
	camera   camera.Camera

	// uploadedMesh is set when Start uploaded the mesh buffers, so Release frees them.
	uploadedMesh bool

	clock float32

	r       renderer.Renderer
	store   Store
	args    buffer.Buffer
	compute ComputeStage
	draw    DrawStage
}

// Dokaben owns the instance buffers, the indirect args buffer and the two stages that animate
// and draw them. It implements the engine component lifecycle:
//
//	Uninitialized -> Allocated -> Initialized -> Updated <-> Drawn -> Released
//
// Update must precede Draw in every frame. Release is valid from any state.
type Dokaben interface {
	// ID returns the identifier used in buffer labels and logs.
	ID() uuid.UUID

	// State returns the current lifecycle state.
	State() State

	// Capacity returns the configured instance count.
	Capacity() int

	// Clock returns the accumulated animation time in seconds.
	Clock() float32

	// Bounds returns the box the instances were placed in.
	Bounds() common.Bounds

	// Camera returns the camera used for drawing.
	Camera() camera.Camera

	// Store returns the instance store, nil before Start.
	Store() Store

	// LastArgs returns the indirect arguments of the most recent draw.
	LastArgs() GPUIndirectArgs

	// Start registers the pipelines, allocates and fills the buffers and binds both stages.
	// Everything acquired is released again on failure. An allocation failure leaves the
	// manager Released, any other failure leaves it Uninitialized.
	//
	// Parameters:
	//   - r: the renderer to allocate on
	//
	// Returns:
	//   - error: ErrInvalidState, ErrInvalidCapacity, *AllocationError, or a pipeline or bind group error
	Start(r renderer.Renderer) error

	// Update advances the clock by dt and dispatches the animation kernel.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous frame
	//
	// Returns:
	//   - error: ErrInvalidState outside Initialized, Updated and Drawn, or a dispatch error
	Update(dt float32) error

	// Draw encodes the instanced draw. It is valid once per frame, after Update.
	//
	// Returns:
	//   - error: ErrInvalidState unless Updated, or a draw error
	Draw() error

	// Release frees every buffer and bind group. Safe to call more than once.
	Release()
}

var _ Dokaben = &dokaben{}

// NewDokaben creates a manager with DefaultCapacity instances in a 32 unit cube around the
// origin, drawn with the built-in plate mesh and a white material.
//
// Parameters:
//   - options: functional options to configure the manager
//
// Returns:
//   - Dokaben: the unstarted manager
func NewDokaben(options ...DokabenBuilderOption) Dokaben {
	d := &dokaben{
		mu:                 &sync.Mutex{},
		id:                 uuid.New(),
		capacity:           DefaultCapacity,
		animationSpeed:     1,
		meshScale:          mgl32.Vec3{1, 1, 1},
		bounds:             common.NewBounds(mgl32.Vec3{}, mgl32.Vec3{32, 32, 32}),
		seed:               1,
		validateShaders:    false,
		computePipelineKey: DefaultComputePipelineKey,
		mesh:               model.NewDokabenPlate(),
		material:           material.NewMaterial(material.WithName("dokaben"), material.WithPipelineKey(DefaultRenderPipelineKey)),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *dokaben) ID() uuid.UUID {
	return d.id
}

func (d *dokaben) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *dokaben) Capacity() int {
	return d.capacity
}

func (d *dokaben) Clock() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock
}

func (d *dokaben) Bounds() common.Bounds {
	return d.bounds
}

func (d *dokaben) Camera() camera.Camera {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.camera
}

func (d *dokaben) Store() Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store
}

func (d *dokaben) LastArgs() GPUIndirectArgs {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draw == nil {
		return GPUIndirectArgs{}
	}
	return d.draw.LastArgs()
}

func (d *dokaben) label() string {
	return "Dokaben " + d.id.String()
}

func (d *dokaben) renderPipelineKey() string {
	if d.material != nil && d.material.PipelineKey() != "" {
		return d.material.PipelineKey()
	}
	return DefaultRenderPipelineKey
}

func (d *dokaben) Start(r renderer.Renderer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUninitialized {
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, d.state)
	}
	if err := ValidateCapacity(d.capacity); err != nil {
		return err
	}

	d.r = r
	if err := d.start(); err != nil {
		d.releaseResources()
		var allocErr *AllocationError
		if errors.As(err, &allocErr) {
			d.state = StateReleased
		} else {
			d.state = StateUninitialized
		}
		common.Logger().Error("dokaben start failed", "id", d.id, "capacity", d.capacity, "error", err)
		return err
	}

	d.state = StateInitialized
	common.Logger().Info("dokaben started",
		"id", d.id,
		"capacity", d.capacity,
		"workgroups", d.compute.Workgroups(),
		"backend", r.Backend().Type().String(),
	)
	return nil
}

// start acquires everything in order. The caller releases on error.
func (d *dokaben) start() error {
	renderKey := d.renderPipelineKey()
	if d.material != nil && d.material.PipelineKey() == "" {
		d.material.SetPipelineKey(renderKey)
	}
	if err := d.registerPipelines(renderKey); err != nil {
		return err
	}

	d.store = NewStore(d.r, d.label())
	if err := d.store.Allocate(d.capacity); err != nil {
		return err
	}
	d.state = StateAllocated

	argsLabel := d.label() + " Indirect Args"
	args, err := d.r.CreateBuffer(argsLabel, IndirectArgsSize, buffer.UsageIndirect|buffer.UsageCopyDst)
	if err != nil {
		return &AllocationError{Label: argsLabel, Size: IndirectArgsSize, Err: err}
	}
	d.args = args

	if err := d.store.Initialize(d.bounds, NewRand(d.seed)); err != nil {
		return err
	}

	if d.mesh != nil && !d.mesh.Uploaded() {
		if err := d.r.InitMeshBuffers(d.mesh.MeshProvider(), d.mesh.VertexData(), d.mesh.IndexData(), d.mesh.IndexCount()); err != nil {
			return asAllocationError(d.mesh.Name(), uint64(len(d.mesh.VertexData())+len(d.mesh.IndexData())), err)
		}
		d.uploadedMesh = true
	}

	if d.camera == nil {
		d.camera = camera.NewCamera()
	}
	if d.camera.Controller() == nil {
		d.camera.FrameBounds(d.bounds)
	}

	if d.compute, err = NewComputeStage(d.r, d.computePipelineKey, d.label(), d.store); err != nil {
		return asAllocationError(d.label()+" Compute", ComputeParamsSize, err)
	}
	if d.draw, err = NewDrawStage(d.r, renderKey, d.label(), d.args, d.camera, d.meshScale); err != nil {
		return asAllocationError(d.label()+" Camera", 80, err)
	}
	return nil
}

// asAllocationError wraps an out-of-memory error from the renderer. Other errors pass through.
func asAllocationError(label string, size uint64, err error) error {
	if errors.Is(err, renderer.ErrOutOfMemory) {
		return &AllocationError{Label: label, Size: size, Err: err}
	}
	return err
}

func (d *dokaben) registerPipelines(renderKey string) error {
	includes := Includes()
	cs, err := shader.NewShader(d.computePipelineKey+"_cs", shader.ShaderTypeCompute,
		shader.WithSource(computeShaderSource),
		shader.WithIncludes(includes),
		shader.WithEntryPoint(ComputeEntryPoint),
		shader.WithValidation(d.validateShaders),
	)
	if err != nil {
		return err
	}
	vs, err := shader.NewShader(renderKey+"_vs", shader.ShaderTypeVertex,
		shader.WithSource(vertexShaderSource),
		shader.WithIncludes(includes),
		shader.WithEntryPoint(vertexEntryPoint),
		shader.WithValidation(d.validateShaders),
	)
	if err != nil {
		return err
	}
	fs, err := shader.NewShader(renderKey+"_fs", shader.ShaderTypeFragment,
		shader.WithSource(fragmentShaderSource),
		shader.WithIncludes(includes),
		shader.WithEntryPoint(fragmentEntryPoint),
		shader.WithValidation(d.validateShaders),
	)
	if err != nil {
		return err
	}

	return d.r.RegisterPipelines(
		pipeline.NewPipeline(d.computePipelineKey, pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(cs),
		),
		pipeline.NewPipeline(renderKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithDepth(true, true),
		),
	)
}

func (d *dokaben) Update(dt float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.state.canUpdate() {
		return fmt.Errorf("%w: update in state %s", ErrInvalidState, d.state)
	}
	d.clock += dt
	if err := d.compute.Dispatch(d.clock, d.animationSpeed); err != nil {
		return fmt.Errorf("dokaben update: %w", err)
	}
	d.state = StateUpdated
	return nil
}

func (d *dokaben) Draw() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUpdated {
		return fmt.Errorf("%w: draw in state %s", ErrInvalidState, d.state)
	}
	if err := d.draw.Draw(d.mesh, d.material, d.store.Records(), d.capacity, d.bounds); err != nil {
		return fmt.Errorf("dokaben draw: %w", err)
	}
	d.state = StateDrawn
	return nil
}

func (d *dokaben) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateReleased {
		return
	}
	d.releaseResources()
	d.state = StateReleased
	common.Logger().Debug("dokaben released", "id", d.id)
}

// releaseResources frees in reverse acquisition order. Caller must hold the mutex.
func (d *dokaben) releaseResources() {
	if d.draw != nil {
		d.draw.Release()
		d.draw = nil
	}
	if d.compute != nil {
		d.compute.Release()
		d.compute = nil
	}
	if d.uploadedMesh {
		d.mesh.Release()
		d.uploadedMesh = false
	}
	if d.args != nil {
		d.args.Release()
		d.args = nil
	}
	if d.store != nil {
		d.store.Release()
	}
}
