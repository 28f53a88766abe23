package dokaben

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/model"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDokabenEndToEnd(t *testing.T) {
	r, sw := newTestRenderer(t)
	bounds := common.NewBounds(mgl32.Vec3{}, mgl32.Vec3{32, 32, 32})
	d := NewDokaben(WithCapacity(256), WithBounds(bounds), WithSeed(7), WithAnimationSpeed(2))
	if err := d.Start(r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Release()
	if d.State() != StateInitialized {
		t.Fatalf("State() = %s, want initialized", d.State())
	}

	initial := readRecords(t, sw, d.Store().Records())
	phases := readPhases(t, sw, d.Store().Phases())
	if len(initial) != 256 || len(phases) != 256 {
		t.Fatalf("got %d records and %d phases, want 256 each", len(initial), len(phases))
	}
	for i, rec := range initial {
		if !bounds.Contains(rec.Position) {
			t.Errorf("record %d position %v outside bounds", i, rec.Position)
		}
		if rec.Rotation != IdentityMatrix2x2() {
			t.Errorf("record %d rotation %+v, want identity", i, rec.Rotation)
		}
		if phases[i] < 0 || phases[i] >= float32(math.Pi/2) {
			t.Errorf("phase %d = %v outside [0, pi/2)", i, phases[i])
		}
	}

	const dt = 0.25
	runFrame(t, r, d, dt)
	if d.State() != StateDrawn {
		t.Fatalf("State() = %s, want drawn", d.State())
	}

	dispatches := sw.Dispatches()
	if len(dispatches) != 1 {
		t.Fatalf("got %d dispatches, want 1", len(dispatches))
	}
	if got := dispatches[0].Workgroups; got != [3]uint32{2, 1, 1} {
		t.Errorf("workgroups = %v, want [2 1 1]", got)
	}
	if dispatches[0].EntryPoint != ComputeEntryPoint {
		t.Errorf("entry point = %q, want %q", dispatches[0].EntryPoint, ComputeEntryPoint)
	}

	draws := sw.Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].IndexCount != 36 || draws[0].InstanceCount != 256 {
		t.Errorf("draw args = {%d, %d}, want {36, 256}", draws[0].IndexCount, draws[0].InstanceCount)
	}
	if draws[0].PipelineKey != DefaultRenderPipelineKey {
		t.Errorf("draw pipeline = %q, want %q", draws[0].PipelineKey, DefaultRenderPipelineKey)
	}
	if len(draws[0].BindGroups) != 2 {
		t.Errorf("draw bind groups = %v, want camera and material", draws[0].BindGroups)
	}

	animated := readRecords(t, sw, d.Store().Records())
	for i, rec := range animated {
		if rec.Position != initial[i].Position {
			t.Errorf("record %d moved from %v to %v", i, initial[i].Position, rec.Position)
		}
		want := Rotation(AnimationAngle(dt*2 + phases[i]))
		if !near(rec.Rotation.M00, want.M00, 1e-6) || !near(rec.Rotation.M10, want.M10, 1e-6) {
			t.Errorf("record %d rotation %+v, want %+v", i, rec.Rotation, want)
		}
	}
	if got := sw.FramesPresented(); got != 1 {
		t.Errorf("FramesPresented() = %d, want 1", got)
	}
}

func TestDokabenCapacity(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int
		wantErr    error
		workgroups uint32
	}{
		{"zero", 0, ErrInvalidCapacity, 0},
		{"below minimum", 255, ErrInvalidCapacity, 0},
		{"minimum", 256, nil, 2},
		{"maximum", 32768, nil, 129},
		{"above maximum", 32769, ErrInvalidCapacity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sw := newTestRenderer(t)
			d := NewDokaben(WithCapacity(tt.capacity))
			defer d.Release()

			err := d.Start(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if d.State() != StateUninitialized {
					t.Errorf("State() = %s, want uninitialized", d.State())
				}
				if got := sw.AllocatedBytes(); got != 0 {
					t.Errorf("AllocatedBytes() = %d after rejected start", got)
				}
				return
			}
			if got := d.Store().Records().Size(); got != uint64(tt.capacity)*DokabenDataSize {
				t.Errorf("records size = %d, want %d", got, tt.capacity*DokabenDataSize)
			}
			runFrame(t, r, d, 1.0/60)
			if got := sw.Dispatches()[0].Workgroups[0]; got != tt.workgroups {
				t.Errorf("workgroups = %d, want %d", got, tt.workgroups)
			}
			if got := sw.Draws()[0].InstanceCount; got != uint32(tt.capacity) {
				t.Errorf("instance count = %d, want %d", got, tt.capacity)
			}
		})
	}
}

func TestDokabenLifecycleMisuse(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, r renderer.Renderer, d Dokaben) error
	}{
		{"update before start", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			return d.Update(0.1)
		}},
		{"draw before update", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			if err := d.Start(r); err != nil {
				t.Fatalf("Start: %v", err)
			}
			return d.Draw()
		}},
		{"start twice", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			if err := d.Start(r); err != nil {
				t.Fatalf("Start: %v", err)
			}
			return d.Start(r)
		}},
		{"draw twice in a frame", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			if err := d.Start(r); err != nil {
				t.Fatalf("Start: %v", err)
			}
			runFrame(t, r, d, 0.1)
			return d.Draw()
		}},
		{"update after release", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			if err := d.Start(r); err != nil {
				t.Fatalf("Start: %v", err)
			}
			d.Release()
			return d.Update(0.1)
		}},
		{"start after release", func(t *testing.T, r renderer.Renderer, d Dokaben) error {
			d.Release()
			return d.Start(r)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t)
			d := NewDokaben(WithCapacity(256))
			defer d.Release()
			if err := tt.run(t, r, d); !errors.Is(err, ErrInvalidState) {
				t.Errorf("error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestDokabenReleaseIsIdempotent(t *testing.T) {
	r, sw := newTestRenderer(t)
	d := NewDokaben(WithCapacity(512))
	if err := d.Start(r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	runFrame(t, r, d, 0.1)
	if sw.AllocatedBytes() == 0 {
		t.Fatal("AllocatedBytes() = 0 while started")
	}

	d.Release()
	d.Release()
	if d.State() != StateReleased {
		t.Errorf("State() = %s, want released", d.State())
	}
	if got := sw.AllocatedBytes(); got != 0 {
		t.Errorf("AllocatedBytes() = %d after release, want 0", got)
	}
}

func TestDokabenAllocationFailure(t *testing.T) {
	const capacity = 256
	plate := model.NewDokabenPlate()
	vertexBytes := uint64(len(plate.VertexData()))
	meshBytes := vertexBytes + uint64(len(plate.IndexData()))
	storeBytes := uint64(capacity * (DokabenDataSize + PhaseSize))

	tests := []struct {
		name     string
		limit    uint64
		mesh     model.Model
		wantSize uint64
	}{
		// Room for the records but not for the phases.
		{"phases", capacity*DokabenDataSize + 100, model.NewDokabenPlate(), capacity * PhaseSize},
		// Room for the vertex buffer but not for the index buffer.
		{"mesh index buffer", storeBytes + IndirectArgsSize + vertexBytes + 10, plate, meshBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sw := newTestRenderer(t, renderer.WithSoftwareMemoryLimit(tt.limit))
			d := NewDokaben(WithCapacity(capacity), WithMesh(tt.mesh))

			err := d.Start(r)
			var allocErr *AllocationError
			if !errors.As(err, &allocErr) {
				t.Fatalf("Start() error = %v, want *AllocationError", err)
			}
			if !errors.Is(err, renderer.ErrOutOfMemory) {
				t.Errorf("error %v does not wrap ErrOutOfMemory", err)
			}
			if allocErr.Size != tt.wantSize {
				t.Errorf("AllocationError.Size = %d, want %d", allocErr.Size, tt.wantSize)
			}
			if d.State() != StateReleased {
				t.Errorf("State() = %s, want released", d.State())
			}
			if tt.mesh.Uploaded() {
				t.Error("mesh reports uploaded after a failed upload")
			}

			d.Release()
			if got := sw.AllocatedBytes(); got != 0 {
				t.Errorf("AllocatedBytes() = %d, partial allocation leaked", got)
			}
		})
	}
}

func TestDokabenMissingAssets(t *testing.T) {
	tests := []struct {
		name      string
		options   []DokabenBuilderOption
		wantDraws int
		wantArgs  GPUIndirectArgs
	}{
		{"nil mesh draws zero indices", []DokabenBuilderOption{WithMesh(nil)}, 1, GPUIndirectArgs{InstanceCount: 256}},
		{"nil material skips the draw", []DokabenBuilderOption{WithMaterial(nil)}, 0, GPUIndirectArgs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sw := newTestRenderer(t)
			d := NewDokaben(append([]DokabenBuilderOption{WithCapacity(256)}, tt.options...)...)
			defer d.Release()
			if err := d.Start(r); err != nil {
				t.Fatalf("Start: %v", err)
			}
			runFrame(t, r, d, 0.1)

			if got := len(sw.Draws()); got != tt.wantDraws {
				t.Fatalf("got %d draws, want %d", got, tt.wantDraws)
			}
			if got := d.LastArgs(); got != tt.wantArgs {
				t.Errorf("LastArgs() = %+v, want %+v", got, tt.wantArgs)
			}
			if tt.wantDraws > 0 && sw.Draws()[0].Mesh != "" {
				t.Errorf("draw mesh = %q, want none", sw.Draws()[0].Mesh)
			}
		})
	}
}

func TestDokabenFramesCamera(t *testing.T) {
	r, _ := newTestRenderer(t)
	bounds := common.NewBounds(mgl32.Vec3{10, 0, -4}, mgl32.Vec3{16, 8, 16})
	d := NewDokaben(WithCapacity(256), WithBounds(bounds))
	defer d.Release()
	if err := d.Start(r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctrl := d.Camera().Controller()
	if ctrl == nil {
		t.Fatal("camera has no controller after Start")
	}
	if !ctrl.Target().ApproxEqual(bounds.Center) {
		t.Errorf("camera target = %v, want %v", ctrl.Target(), bounds.Center)
	}
}

func TestDokabenClockAdvances(t *testing.T) {
	r, _ := newTestRenderer(t)
	d := NewDokaben(WithCapacity(256))
	defer d.Release()
	if err := d.Start(r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for range 3 {
		runFrame(t, r, d, 0.5)
	}
	if !near(d.Clock(), 1.5, 1e-6) {
		t.Errorf("Clock() = %v, want 1.5", d.Clock())
	}
}
