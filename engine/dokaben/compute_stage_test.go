package dokaben

import (
	"bytes"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
)

// startedStore starts a manager on a software renderer and returns a second compute stage
// bound to its store, so tests can dispatch with chosen clock values.
func startedStore(t *testing.T) (renderer.Renderer, renderer.SoftwareRendererBackend, Store, ComputeStage) {
	t.Helper()
	r, sw := newTestRenderer(t)
	d := NewDokaben(WithCapacity(MinCapacity), WithSeed(3))
	if err := d.Start(r); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Release)

	cs, err := NewComputeStage(r, DefaultComputePipelineKey, "stage test", d.Store())
	if err != nil {
		t.Fatalf("NewComputeStage: %v", err)
	}
	t.Cleanup(cs.Release)
	return r, sw, d.Store(), cs
}

func dispatchFrame(t *testing.T, r renderer.Renderer, cs ComputeStage, clock, speed float32) {
	t.Helper()
	if err := r.BeginComputeFrame(); err != nil {
		t.Fatalf("BeginComputeFrame: %v", err)
	}
	if err := cs.Dispatch(clock, speed); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := r.EndComputeFrame(); err != nil {
		t.Fatalf("EndComputeFrame: %v", err)
	}
}

func TestComputeStageRepeatsBitIdentical(t *testing.T) {
	tests := []struct {
		name         string
		clock, speed float32
	}{
		{"start", 0, 1},
		{"mid flip", 0.75, 1.5},
		{"many turns", 41.3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sw, s, cs := startedStore(t)

			dispatchFrame(t, r, cs, tt.clock, tt.speed)
			first, err := sw.BufferBytes(s.Records())
			if err != nil {
				t.Fatalf("BufferBytes: %v", err)
			}
			dispatchFrame(t, r, cs, tt.clock, tt.speed)
			second, err := sw.BufferBytes(s.Records())
			if err != nil {
				t.Fatalf("BufferBytes: %v", err)
			}
			if !bytes.Equal(first, second) {
				t.Error("records differ between two dispatches with the same clock and speed")
			}
		})
	}
}

func TestComputeStageEqualPhasesEqualRotations(t *testing.T) {
	r, sw, s, cs := startedStore(t)

	phases := make([]float32, MinCapacity)
	phases[0], phases[1] = 0.3, 0.3
	if err := r.WriteBuffer(s.Phases(), 0, common.SliceToBytes(phases)); err != nil {
		t.Fatalf("WriteBuffer(phases): %v", err)
	}
	dispatchFrame(t, r, cs, 0, 1)

	data, err := sw.BufferBytes(s.Records())
	if err != nil {
		t.Fatalf("BufferBytes: %v", err)
	}
	rotation := func(i int) []byte {
		off := i*DokabenDataSize + rotationOffset
		return data[off : off+DokabenDataSize-rotationOffset]
	}
	if !bytes.Equal(rotation(0), rotation(1)) {
		t.Errorf("equal phases gave different rotations: % x vs % x", rotation(0), rotation(1))
	}
	if bytes.Equal(rotation(0), rotation(2)) {
		t.Error("phase 0.3 and phase 0 gave the same rotation")
	}

	want := Rotation(AnimationAngle(0.3))
	if got := UnmarshalDokabenData(data[0:]).Rotation; got != want {
		t.Errorf("rotation = %+v, want %+v", got, want)
	}
}
