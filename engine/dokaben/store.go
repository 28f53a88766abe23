package dokaben

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/buffer"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinCapacity is the smallest supported instance count.
	MinCapacity = 256
	// MaxCapacity is the largest supported instance count.
	MaxCapacity = 32768
	// DefaultCapacity is the instance count used when none is configured.
	DefaultCapacity = 14384
)

// maxPhase is the largest float32 below π/2, keeping phases in [0, π/2).
var maxPhase = math.Nextafter32(float32(math.Pi/2), 0)

type store struct {
	r     renderer.Renderer
	label string

	capacity    int
	records     buffer.Buffer
	phases      buffer.Buffer
	initialized bool
}

// Store owns the two parallel instance buffers: the 32-byte records and the f32 phase offsets.
// Element i of one pairs with element i of the other by index only.
type Store interface {
	// Allocate creates both buffers for capacity instances. If either allocation fails the
	// other is released before returning.
	//
	// Parameters:
	//   - capacity: the instance count, in [MinCapacity, MaxCapacity]
	//
	// Returns:
	//   - error: ErrInvalidCapacity, ErrInvalidState if already allocated, or *AllocationError
	Allocate(capacity int) error

	// Initialize writes random positions inside bounds, identity rotations and random phases.
	// It may run once, after Allocate.
	//
	// Parameters:
	//   - bounds: the box positions are drawn from
	//   - rng: the source of randomness
	//
	// Returns:
	//   - error: ErrInvalidState, or a write error from the renderer
	Initialize(bounds common.Bounds, rng *rand.Rand) error

	// Capacity returns the allocated instance count, 0 before Allocate.
	Capacity() int

	// Records returns the records buffer, nil before Allocate.
	Records() buffer.Buffer

	// Phases returns the phase buffer, nil before Allocate.
	Phases() buffer.Buffer

	// Release frees both buffers. Safe before Allocate and safe to call more than once.
	Release()
}

var _ Store = &store{}

// NewStore creates an empty Store backed by r.
//
// Parameters:
//   - r: the renderer buffers are created on
//   - label: prefix for buffer debug labels
//
// Returns:
//   - Store: the unallocated store
func NewStore(r renderer.Renderer, label string) Store {
	return &store{r: r, label: label}
}

// ValidateCapacity checks an instance count against the supported range.
//
// Parameters:
//   - capacity: the requested instance count
//
// Returns:
//   - error: ErrInvalidCapacity wrapped with the value, or nil
func ValidateCapacity(capacity int) error {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCapacity, capacity, MinCapacity, MaxCapacity)
	}
	return nil
}

func (s *store) Allocate(capacity int) error {
	if s.records != nil {
		return fmt.Errorf("%w: store already allocated", ErrInvalidState)
	}
	if err := ValidateCapacity(capacity); err != nil {
		return err
	}

	records, err := s.create(" Records", uint64(capacity)*DokabenDataSize)
	if err != nil {
		return err
	}
	phases, err := s.create(" Phases", uint64(capacity)*PhaseSize)
	if err != nil {
		records.Release()
		return err
	}

	s.capacity, s.records, s.phases = capacity, records, phases
	common.Logger().Debug("dokaben store allocated", "label", s.label, "capacity", capacity,
		"bytes", records.Size()+phases.Size())
	return nil
}

func (s *store) create(suffix string, size uint64) (buffer.Buffer, error) {
	label := s.label + suffix
	buf, err := s.r.CreateBuffer(label, size, buffer.UsageStorage|buffer.UsageCopyDst)
	if err != nil {
		return nil, &AllocationError{Label: label, Size: size, Err: err}
	}
	return buf, nil
}

func (s *store) Initialize(bounds common.Bounds, rng *rand.Rand) error {
	if s.records == nil {
		return fmt.Errorf("%w: initialize before allocate", ErrInvalidState)
	}
	if s.initialized {
		return fmt.Errorf("%w: store already initialized", ErrInvalidState)
	}

	records, phases := GenerateInstances(s.capacity, bounds, rng)
	recordBytes := make([]byte, len(records)*DokabenDataSize)
	for i := range records {
		records[i].MarshalTo(recordBytes[i*DokabenDataSize:])
	}
	if err := s.r.WriteBuffer(s.records, 0, recordBytes); err != nil {
		return fmt.Errorf("dokaben: upload records: %w", err)
	}
	if err := s.r.WriteBuffer(s.phases, 0, common.SliceToBytes(phases)); err != nil {
		return fmt.Errorf("dokaben: upload phases: %w", err)
	}
	s.initialized = true
	return nil
}

// GenerateInstances draws the initial instance state. Positions are uniform per axis inside
// bounds, rotations are identity and phases are uniform in [0, π/2). The same rng state
// always yields the same output.
//
// Parameters:
//   - count: the number of instances
//   - bounds: the box positions are drawn from
//   - rng: the source of randomness
//
// Returns:
//   - []GPUDokabenData: count records
//   - []float32: count phase offsets
func GenerateInstances(count int, bounds common.Bounds, rng *rand.Rand) ([]GPUDokabenData, []float32) {
	lo, hi := bounds.Min(), bounds.Max()
	records := make([]GPUDokabenData, count)
	phases := make([]float32, count)
	for i := range count {
		var p mgl32.Vec3
		for axis := range 3 {
			p[axis] = common.Clamp(lo[axis]+rng.Float32()*bounds.Size[axis], lo[axis], hi[axis])
		}
		records[i] = GPUDokabenData{Position: p, Rotation: IdentityMatrix2x2()}
		phases[i] = min(rng.Float32()*float32(math.Pi/2), maxPhase)
	}
	return records, phases
}

// NewRand returns the deterministic generator used for instance placement.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (s *store) Capacity() int {
	return s.capacity
}

func (s *store) Records() buffer.Buffer {
	return s.records
}

func (s *store) Phases() buffer.Buffer {
	return s.phases
}

func (s *store) Release() {
	if s.records != nil {
		s.records.Release()
		s.records = nil
	}
	if s.phases != nil {
		s.phases.Release()
		s.phases = nil
	}
	s.capacity = 0
	s.initialized = false
}
