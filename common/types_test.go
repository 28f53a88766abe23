package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBoundsContains(t *testing.T) {
	b := NewBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{32, 32, 32})

	tests := []struct {
		name string
		p    mgl32.Vec3
		want bool
	}{
		{"origin", mgl32.Vec3{0, 0, 0}, true},
		{"corner", mgl32.Vec3{16, -16, 16}, true},
		{"outside x", mgl32.Vec3{16.5, 0, 0}, false},
		{"outside z", mgl32.Vec3{0, 0, -17}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestBoundsOffsetCenter(t *testing.T) {
	b := NewBounds(mgl32.Vec3{10, 0, -4}, mgl32.Vec3{2, 4, 8})
	if got, want := b.Min(), (mgl32.Vec3{9, -2, -8}); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := b.Max(), (mgl32.Vec3{11, 2, 0}); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
}

func TestWebGPUPerspectiveDepthRange(t *testing.T) {
	proj := WebGPUPerspective(mgl32.DegToRad(60), 1, 1, 100)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})

	if d := near.Z() / near.W(); d < -1e-5 || d > 1e-5 {
		t.Errorf("near plane depth = %f, want 0", d)
	}
	if d := far.Z() / far.W(); d < 1-1e-4 || d > 1+1e-4 {
		t.Errorf("far plane depth = %f, want 1", d)
	}
}
