package dokaben

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
)

func TestAnimationAngleSteps(t *testing.T) {
	tests := []struct {
		name string
		t    float32
		want float32
	}{
		{"start", 0, 0},
		{"one quarter turn", math.Pi / 2, math.Pi / 2},
		{"two quarter turns", math.Pi, math.Pi},
		{"seven quarter turns", 7 * math.Pi / 2, 7 * math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnimationAngle(tt.t); !near(got, tt.want, 1e-5) {
				t.Errorf("AnimationAngle(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestEaseOutBackOvershoots(t *testing.T) {
	if got := EaseOutBack(0); math.Abs(got) > 1e-12 {
		t.Errorf("EaseOutBack(0) = %v, want 0", got)
	}
	if got := EaseOutBack(1); got != 1 {
		t.Errorf("EaseOutBack(1) = %v, want 1", got)
	}
	peak := 0.0
	for i := range 101 {
		peak = max(peak, EaseOutBack(float64(i)/100))
	}
	if peak <= 1 {
		t.Errorf("EaseOutBack peak = %v, want an overshoot above 1", peak)
	}
}

func TestRotationIsOrthonormal(t *testing.T) {
	for i := range 200 {
		angle := AnimationAngle(float32(i) * 0.137)
		m := Rotation(angle)
		if !near(m.Determinant(), 1, 1e-5) {
			t.Fatalf("det(Rotation(%v)) = %v, want 1", angle, m.Determinant())
		}
		if m.M00 != m.M11 || m.M01 != -m.M10 {
			t.Fatalf("Rotation(%v) = %+v is not {c, c, -s, s}", angle, m)
		}
	}
}

func TestKernelWritesOwnedRange(t *testing.T) {
	const count = 300
	params := GPUComputeParams{Time: 1.5, AnimationSpeed: 1}
	records := make([]byte, count*DokabenDataSize)
	phases := make([]byte, count*PhaseSize)
	for i := range count {
		binary.LittleEndian.PutUint32(phases[i*PhaseSize:], math.Float32bits(float32(i)*0.001))
	}

	// Second workgroup of the dispatch: invocations 256..511, of which 256..299 exist.
	wg := renderer.Workgroup{
		ID:       [3]uint32{1, 0, 0},
		Size:     [3]uint32{WorkgroupSize, 1, 1},
		Bindings: map[int][]byte{0: params.Marshal(), 1: records, 2: phases},
	}
	if err := Kernel(wg); err != nil {
		t.Fatalf("Kernel: %v", err)
	}
	for i := range count {
		rec := UnmarshalDokabenData(records[i*DokabenDataSize:])
		if i < WorkgroupSize {
			if rec.Rotation != (GPUMatrix2x2{}) {
				t.Fatalf("record %d written by a foreign workgroup", i)
			}
			continue
		}
		want := Rotation(AnimationAngle(1.5 + float32(i)*0.001))
		if rec.Rotation != want {
			t.Fatalf("record %d rotation = %+v, want %+v", i, rec.Rotation, want)
		}
	}
}

func TestKernelRejectsShortParams(t *testing.T) {
	wg := renderer.Workgroup{
		Size:     [3]uint32{WorkgroupSize, 1, 1},
		Bindings: map[int][]byte{0: make([]byte, 4), 1: nil, 2: nil},
	}
	if err := Kernel(wg); err == nil {
		t.Error("Kernel() with a 4 byte params binding returned nil")
	}
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		capacity int
		want     uint32
	}{
		{256, 2},
		{257, 3},
		{DefaultCapacity, 58},
		{MaxCapacity, 129},
	}
	for _, tt := range tests {
		if got := WorkgroupCount(tt.capacity); got != tt.want {
			t.Errorf("WorkgroupCount(%d) = %d, want %d", tt.capacity, got, tt.want)
		}
	}
}
