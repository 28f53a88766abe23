package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrKernelNotFound is returned when a compute pipeline's entry point has no registered Kernel.
	ErrKernelNotFound = errors.New("renderer: no software kernel for entry point")

	// ErrInvalidUsage is returned when a buffer is used in a way its usage flags do not allow.
	ErrInvalidUsage = errors.New("renderer: buffer usage does not allow operation")
)

// indirectArgsSize is the size of the DrawIndexedIndirect argument block.
const indirectArgsSize = 20

// Workgroup is one compute workgroup handed to a Kernel.
type Workgroup struct {
	// ID is the workgroup id within the dispatch.
	ID [3]uint32

	// Size is the @workgroup_size of the entry point.
	Size [3]uint32

	// Bindings holds the group 0 buffer contents by binding index. Writes go straight to the buffer.
	Bindings map[int][]byte
}

// GlobalX returns the x component of global_invocation_id for a local x index.
func (w Workgroup) GlobalX(localX uint32) uint32 {
	return w.ID[0]*w.Size[0] + localX
}

// Kernel runs the invocations of one workgroup on the CPU. Kernels of the same dispatch run
// concurrently, so a kernel must only write the elements owned by its own invocations.
type Kernel func(wg Workgroup) error

// DispatchRecord describes one compute dispatch executed by the software backend.
type DispatchRecord struct {
	PipelineKey string
	EntryPoint  string
	Workgroups  [3]uint32
	Provider    string
}

// DrawRecord describes one indirect draw recorded by the software backend. The arguments are
// decoded from the indirect buffer when the draw is encoded, matching queue order on the GPU.
type DrawRecord struct {
	PipelineKey   string
	Mesh          string
	BindGroups    []string
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// SoftwareRendererBackend is the CPU backend. Besides RendererBackend it exposes the
// recorded work and buffer contents for tests and diagnostics.
type SoftwareRendererBackend interface {
	RendererBackend

	// RegisterKernel binds a Go kernel to a compute entry point name.
	//
	// Parameters:
	//   - entryPoint: the WGSL entry point name
	//   - k: the kernel
	RegisterKernel(entryPoint string, k Kernel)

	// BufferBytes returns a copy of a buffer's contents.
	//
	// Parameters:
	//   - buf: a buffer created by this backend
	//
	// Returns:
	//   - []byte: the contents
	//   - error: ErrForeignBuffer or ErrBufferReleased
	BufferBytes(buf buffer.Buffer) ([]byte, error)

	// Dispatches returns the dispatches of the last submitted compute frame.
	Dispatches() []DispatchRecord

	// Draws returns the draws of the last submitted render frame.
	Draws() []DrawRecord

	// FramesPresented returns the number of Present calls that presented a frame.
	FramesPresented() uint64

	// AllocatedBytes returns the total size of live buffers.
	AllocatedBytes() uint64
}

// softwareBuffer is a host memory buffer.
type softwareBuffer struct {
	data     []byte
	label    string
	usage    buffer.Usage
	released bool
	owner    *softwareRendererBackendImpl
}

var _ buffer.Buffer = &softwareBuffer{}

func (b *softwareBuffer) Label() string       { return b.label }
func (b *softwareBuffer) Size() uint64        { return uint64(len(b.data)) }
func (b *softwareBuffer) Usage() buffer.Usage { return b.usage }
func (b *softwareBuffer) Released() bool      { return b.released }

func (b *softwareBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.owner.free(uint64(len(b.data)))
	b.data = nil
}

type softwareRendererBackendImpl struct {
	mu *sync.Mutex

	kernels map[string]Kernel
	pool    worker.DynamicWorkerPool
	workers int

	memMu       sync.Mutex
	memoryLimit uint64
	allocated   uint64

	width, height int

	computeOpen       bool
	pendingDispatches []DispatchRecord
	lastDispatches    []DispatchRecord

	frameOpen    bool
	pendingDraws []DrawRecord
	lastDraws    []DrawRecord
	frameReady   bool
	presented    uint64
}

var _ SoftwareRendererBackend = &softwareRendererBackendImpl{}

// newSoftwareRendererBackend creates the CPU backend.
//
// Parameters:
//   - workers: the number of pool workers, GOMAXPROCS when <= 0
//   - memoryLimit: the byte budget of live buffers, unlimited when 0
//
// Returns:
//   - *softwareRendererBackendImpl: the backend
func newSoftwareRendererBackend(workers int, memoryLimit uint64) *softwareRendererBackendImpl {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &softwareRendererBackendImpl{
		mu:          &sync.Mutex{},
		kernels:     make(map[string]Kernel),
		pool:        worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers:     workers,
		memoryLimit: memoryLimit,
	}
}

func (b *softwareRendererBackendImpl) Type() RendererBackendType {
	return BackendTypeSoftware
}

func (b *softwareRendererBackendImpl) RegisterKernel(entryPoint string, k Kernel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kernels[entryPoint] = k
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	return nil
}

func (b *softwareRendererBackendImpl) SetPresentMode(PresentMode) {}

func (b *softwareRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	return p.Validate()
}

func (b *softwareRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}
	entry := p.Shader(shader.ShaderTypeCompute).EntryPoint()
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.kernels[entry]; !ok {
		return fmt.Errorf("%w: %q", ErrKernelNotFound, entry)
	}
	return nil
}

// reserve accounts for a new allocation against the memory limit.
func (b *softwareRendererBackendImpl) reserve(size uint64) error {
	b.memMu.Lock()
	defer b.memMu.Unlock()
	if b.memoryLimit > 0 && b.allocated+size > b.memoryLimit {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, b.allocated, b.memoryLimit)
	}
	b.allocated += size
	return nil
}

func (b *softwareRendererBackendImpl) free(size uint64) {
	b.memMu.Lock()
	defer b.memMu.Unlock()
	b.allocated -= min(size, b.allocated)
}

func (b *softwareRendererBackendImpl) AllocatedBytes() uint64 {
	b.memMu.Lock()
	defer b.memMu.Unlock()
	return b.allocated
}

func (b *softwareRendererBackendImpl) CreateBuffer(label string, size uint64, usage buffer.Usage) (buffer.Buffer, error) {
	return b.createBuffer(label, size, usage)
}

func (b *softwareRendererBackendImpl) createBuffer(label string, size uint64, usage buffer.Usage) (*softwareBuffer, error) {
	if err := b.reserve(size); err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	return &softwareBuffer{data: make([]byte, size), label: label, usage: usage, owner: b}, nil
}

// unwrap returns the host buffer behind a buffer.Buffer.
func (b *softwareRendererBackendImpl) unwrap(buf buffer.Buffer) (*softwareBuffer, error) {
	sb, ok := buf.(*softwareBuffer)
	if !ok || sb.owner != b {
		return nil, fmt.Errorf("%w: %T", ErrForeignBuffer, buf)
	}
	if sb.released {
		return nil, fmt.Errorf("%w: %s", ErrBufferReleased, sb.label)
	}
	return sb, nil
}

func (b *softwareRendererBackendImpl) WriteBuffer(buf buffer.Buffer, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := checkWrite(buf, offset, data); err != nil {
		return err
	}
	sb, err := b.unwrap(buf)
	if err != nil {
		return err
	}
	if !sb.usage.Has(buffer.UsageCopyDst) {
		return fmt.Errorf("%w: write to %s (%s)", ErrInvalidUsage, sb.label, sb.usage)
	}
	copy(sb.data[offset:], data)
	return nil
}

func (b *softwareRendererBackendImpl) BufferBytes(buf buffer.Buffer) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sb, err := b.unwrap(buf)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), sb.data...), nil
}

func (b *softwareRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Both buffers are created before either is attached, so a failure leaves the provider untouched.
	var vb, ib *softwareBuffer
	if len(vertexData) > 0 {
		buf, err := b.createBuffer(provider.Label()+" Vertex Buffer", uint64(len(vertexData)), buffer.UsageVertex|buffer.UsageCopyDst)
		if err != nil {
			return err
		}
		copy(buf.data, vertexData)
		vb = buf
	}
	if len(indexData) > 0 {
		buf, err := b.createBuffer(provider.Label()+" Index Buffer", uint64(len(indexData)), buffer.UsageIndex|buffer.UsageCopyDst)
		if err != nil {
			if vb != nil {
				vb.Release()
			}
			return err
		}
		copy(buf.data, indexData)
		ib = buf
	}

	if vb != nil {
		provider.SetVertexBuffer(vb)
	}
	if ib != nil {
		provider.SetIndexBuffer(ib)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *softwareRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]buffer.Usage, sizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if buf := provider.Buffer(binding); buf != nil {
			if _, err := b.unwrap(buf); err != nil {
				return err
			}
			continue
		}
		size := entry.Buffer.MinBindingSize
		if override, ok := sizeOverrides[binding]; ok {
			size = override
		}
		usage := usageForBinding(entry.Buffer.Type) | usageOverrides[binding]
		created, err := b.createBuffer(fmt.Sprintf("%s Buffer %d", provider.Label(), binding), size, usage)
		if err != nil {
			return err
		}
		provider.SetOwnedBuffer(binding, created)
	}
	return nil
}

func (b *softwareRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.computeOpen {
		return ErrFrameInProgress
	}
	b.computeOpen = true
	b.pendingDispatches = nil
	return nil
}

func (b *softwareRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workgroupCount [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.computeOpen {
		return ErrNoFrame
	}
	cs := p.Shader(shader.ShaderTypeCompute)
	kernel, ok := b.kernels[cs.EntryPoint()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrKernelNotFound, cs.EntryPoint())
	}

	bindings := make(map[int][]byte, len(provider.Buffers()))
	for binding, buf := range provider.Buffers() {
		sb, err := b.unwrap(buf)
		if err != nil {
			return fmt.Errorf("dispatch %q binding %d: %w", p.PipelineKey(), binding, err)
		}
		bindings[binding] = sb.data
	}

	if err := b.runWorkgroups(kernel, cs.WorkgroupSize(), workgroupCount, bindings); err != nil {
		return fmt.Errorf("dispatch %q: %w", p.PipelineKey(), err)
	}

	b.pendingDispatches = append(b.pendingDispatches, DispatchRecord{
		PipelineKey: p.PipelineKey(),
		EntryPoint:  cs.EntryPoint(),
		Workgroups:  workgroupCount,
		Provider:    provider.Label(),
	})
	common.Logger().Debug("software dispatch", "pipeline", p.PipelineKey(), "workgroups", workgroupCount[0]*workgroupCount[1]*workgroupCount[2])
	return nil
}

// runWorkgroups splits the flattened workgroup range into one contiguous chunk per worker
// and blocks until every chunk has run.
func (b *softwareRendererBackendImpl) runWorkgroups(kernel Kernel, size, count [3]uint32, bindings map[int][]byte) error {
	total := int(count[0]) * int(count[1]) * int(count[2])
	if total == 0 {
		return nil
	}
	chunks := min(b.workers, total)
	per := (total + chunks - 1) / chunks

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   []error
		taskID int
	)
	for start := 0; start < total; start += per {
		end := min(start+per, total)
		wg.Add(1)
		id := taskID
		taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					w := Workgroup{
						ID: [3]uint32{
							uint32(i % int(count[0])),
							uint32(i / int(count[0]) % int(count[1])),
							uint32(i / (int(count[0]) * int(count[1]))),
						},
						Size:     size,
						Bindings: bindings,
					}
					if err := kernel(w); err != nil {
						errMu.Lock()
						errs = append(errs, fmt.Errorf("workgroup %v: %w", w.ID, err))
						errMu.Unlock()
						return nil, err
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (b *softwareRendererBackendImpl) EndComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.computeOpen {
		return ErrNoFrame
	}
	b.computeOpen = false
	b.lastDispatches = b.pendingDispatches
	b.pendingDispatches = nil
	return nil
}

func (b *softwareRendererBackendImpl) Dispatches() []DispatchRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DispatchRecord(nil), b.lastDispatches...)
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameOpen || b.frameReady {
		return ErrFrameInProgress
	}
	b.frameOpen = true
	b.pendingDraws = nil
	return nil
}

func (b *softwareRendererBackendImpl) DrawCallIndirect(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, indirect buffer.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.frameOpen {
		return ErrNoFrame
	}
	args, err := b.unwrap(indirect)
	if err != nil {
		return err
	}
	if !args.usage.Has(buffer.UsageIndirect) {
		return fmt.Errorf("%w: %s is not an indirect buffer (%s)", ErrInvalidUsage, args.label, args.usage)
	}
	if len(args.data) < indirectArgsSize {
		return fmt.Errorf("%w: %s holds %d bytes, indirect args need %d", ErrOutOfBounds, args.label, len(args.data), indirectArgsSize)
	}

	rec := DrawRecord{
		PipelineKey:   p.PipelineKey(),
		IndexCount:    binary.LittleEndian.Uint32(args.data[0:]),
		InstanceCount: binary.LittleEndian.Uint32(args.data[4:]),
		FirstIndex:    binary.LittleEndian.Uint32(args.data[8:]),
		BaseVertex:    int32(binary.LittleEndian.Uint32(args.data[12:])),
		FirstInstance: binary.LittleEndian.Uint32(args.data[16:]),
	}
	if mesh != nil {
		rec.Mesh = mesh.Label()
	}
	for _, bg := range bindGroups {
		rec.BindGroups = append(rec.BindGroups, bg.Label())
	}
	b.pendingDraws = append(b.pendingDraws, rec)
	return nil
}

func (b *softwareRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.frameOpen {
		return ErrNoFrame
	}
	b.frameOpen = false
	b.frameReady = true
	b.lastDraws = b.pendingDraws
	b.pendingDraws = nil
	return nil
}

func (b *softwareRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.frameReady {
		return
	}
	b.frameReady = false
	b.presented++
}

func (b *softwareRendererBackendImpl) Draws() []DrawRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawRecord(nil), b.lastDraws...)
}

func (b *softwareRendererBackendImpl) FramesPresented() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presented
}

// Release drops recorded work. Buffers are owned by their creators and stay valid.
func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.computeOpen, b.frameOpen, b.frameReady = false, false, false
	b.pendingDispatches, b.pendingDraws = nil, nil
}
