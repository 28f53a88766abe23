package dokaben

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
)

// WorkgroupCount returns the number of animation workgroups dispatched for capacity instances.
// One workgroup more than needed is dispatched, and the kernel bounds-checks the tail.
//
// Parameters:
//   - capacity: the instance count
//
// Returns:
//   - uint32: ceil(capacity / WorkgroupSize) + 1
func WorkgroupCount(capacity int) uint32 {
	return common.CeilDiv(uint32(capacity), WorkgroupSize) + 1
}

type computeStage struct {
	r           renderer.Renderer
	pipelineKey string
	provider    bind_group_provider.BindGroupProvider

	paramsBinding int
	workgroups    uint32
}

// ComputeStage rewrites every record's rotation once per frame on the GPU.
type ComputeStage interface {
	// Dispatch uploads the compute params and encodes one dispatch over all instances.
	// Must run inside a compute frame.
	//
	// Parameters:
	//   - clock: the animation clock in seconds
	//   - speed: the clock multiplier
	//
	// Returns:
	//   - error: a write or dispatch error from the renderer
	Dispatch(clock, speed float32) error

	// Workgroups returns the x workgroup count of each dispatch.
	Workgroups() uint32

	// Release frees the params uniform. The borrowed store buffers are left alone.
	Release()
}

var _ ComputeStage = &computeStage{}

// NewComputeStage binds the store buffers to a registered animation pipeline. The binding
// indices come from the shader's variable names, and the params uniform is created by the
// renderer from the group 0 layout.
//
// Parameters:
//   - r: the renderer holding the pipeline
//   - pipelineKey: the compute pipeline key
//   - label: prefix for the bind group debug label
//   - s: an allocated store
//
// Returns:
//   - ComputeStage: the bound stage
//   - error: ErrInvalidState, ErrWorkgroupSize, or a bind group error
func NewComputeStage(r renderer.Renderer, pipelineKey, label string, s Store) (ComputeStage, error) {
	if s.Records() == nil {
		return nil, fmt.Errorf("%w: compute stage needs an allocated store", ErrInvalidState)
	}
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", renderer.ErrPipelineNotFound, pipelineKey)
	}
	cs := p.Shader(shader.ShaderTypeCompute)
	if size := cs.WorkgroupSize(); size != [3]uint32{WorkgroupSize, 1, 1} {
		return nil, fmt.Errorf("%w: %s is %v, want [%d 1 1]", ErrWorkgroupSize, cs.EntryPoint(), size, WorkgroupSize)
	}

	bindings := make(map[string]int, 3)
	for _, name := range []string{"params", "dokaben_data", "phase"} {
		b, ok := cs.BindGroupFromVarName(0, name)
		if !ok {
			return nil, fmt.Errorf("dokaben: %s declares no group 0 variable %q", cs.Key(), name)
		}
		bindings[name] = b
	}

	provider := bind_group_provider.NewBindGroupProvider(label+" Compute",
		bind_group_provider.WithBorrowedBuffer(bindings["dokaben_data"], s.Records()),
		bind_group_provider.WithBorrowedBuffer(bindings["phase"], s.Phases()),
	)
	desc, err := r.BindGroupLayoutDescriptor(pipelineKey, 0)
	if err != nil {
		return nil, err
	}
	if err := r.InitBindGroup(provider, desc, nil, nil); err != nil {
		provider.Release()
		return nil, fmt.Errorf("dokaben: compute bind group: %w", err)
	}

	return &computeStage{
		r:             r,
		pipelineKey:   pipelineKey,
		provider:      provider,
		paramsBinding: bindings["params"],
		workgroups:    WorkgroupCount(s.Capacity()),
	}, nil
}

func (c *computeStage) Dispatch(clock, speed float32) error {
	params := GPUComputeParams{Time: clock, AnimationSpeed: speed}
	if err := c.r.WriteBuffer(c.provider.Buffer(c.paramsBinding), 0, params.Marshal()); err != nil {
		return fmt.Errorf("dokaben: upload compute params: %w", err)
	}
	return c.r.DispatchCompute(c.pipelineKey, c.provider, [3]uint32{c.workgroups, 1, 1})
}

func (c *computeStage) Workgroups() uint32 {
	return c.workgroups
}

func (c *computeStage) Release() {
	c.provider.Release()
}
