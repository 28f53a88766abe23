package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUCameraUniformLayout(t *testing.T) {
	u := GPUCameraUniform{ViewProj: mgl32.Ident4(), CameraPosition: mgl32.Vec3{1, 2, 3}}
	if u.Size() != 80 {
		t.Fatalf("Size() = %d, want 80", u.Size())
	}
	if got := len(u.Marshal()); got != 80 {
		t.Fatalf("Marshal() len = %d, want 80", got)
	}
}

func TestOrbitControllerClamps(t *testing.T) {
	tests := []struct {
		name       string
		apply      func(CameraController)
		wantRadius float32
	}{
		{"zoom in past min", func(c CameraController) { c.Zoom(1000) }, 5},
		{"zoom out past max", func(c CameraController) { c.Zoom(-1000) }, 50},
		{"set radius in range", func(c CameraController) { c.SetRadius(12) }, 12},
		{"tighter bounds", func(c CameraController) { c.SetRadiusBounds(30, 40) }, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitController(WithRadius(20), WithRadiusBounds(5, 50))
			tt.apply(c)
			if got := c.Radius(); got != tt.wantRadius {
				t.Errorf("Radius() = %v, want %v", got, tt.wantRadius)
			}
			dist := c.Position().Sub(c.Target()).Len()
			if math.Abs(float64(dist-tt.wantRadius)) > 1e-3 {
				t.Errorf("eye distance = %v, want %v", dist, tt.wantRadius)
			}
		})
	}
}

func TestOrbitElevationStaysBelowPole(t *testing.T) {
	c := NewOrbitController()
	for range 200 {
		c.OrbitUp()
	}
	if c.Elevation() >= math.Pi/2 {
		t.Errorf("Elevation() = %v, want < pi/2", c.Elevation())
	}
}

func TestFrameBoundsKeepsBoxInFront(t *testing.T) {
	b := common.NewBounds(mgl32.Vec3{5, 0, -3}, mgl32.Vec3{32, 32, 32})
	cam := NewCamera()
	cam.FrameBounds(b)

	ctrl := cam.Controller()
	if ctrl == nil {
		t.Fatal("FrameBounds() should attach a controller")
	}
	if !ctrl.Target().ApproxEqual(b.Center) {
		t.Errorf("Target() = %v, want %v", ctrl.Target(), b.Center)
	}
	if ctrl.Radius() <= b.Radius() {
		t.Errorf("Radius() = %v, want outside the bounding sphere %v", ctrl.Radius(), b.Radius())
	}
	if cam.Far() < ctrl.Radius()+b.Radius() {
		t.Errorf("Far() = %v does not reach the back of the box", cam.Far())
	}

	// Every corner must land inside the WebGPU clip volume.
	vp := cam.ViewProjection()
	lo, hi := b.Min(), b.Max()
	for i := range 8 {
		corner := mgl32.Vec3{lo[0], lo[1], lo[2]}
		if i&1 != 0 {
			corner[0] = hi[0]
		}
		if i&2 != 0 {
			corner[1] = hi[1]
		}
		if i&4 != 0 {
			corner[2] = hi[2]
		}
		clip := vp.Mul4x1(corner.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		if ndc.Z() < 0 || ndc.Z() > 1 {
			t.Errorf("corner %v depth %v outside [0, 1]", corner, ndc.Z())
		}
		if math.Abs(float64(ndc.Y())) > 1 {
			t.Errorf("corner %v y %v outside the view", corner, ndc.Y())
		}
	}
}

func TestUniformCarriesEyePosition(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithAzimuth(0), WithElevation(0))
	cam := NewCamera(WithController(ctrl))
	u := cam.Uniform()
	want := mgl32.Vec3{0, 0, 10}
	if !u.CameraPosition.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("CameraPosition = %v, want %v", u.CameraPosition, want)
	}
	if u.ViewProj != cam.ViewProjection() {
		t.Error("uniform view projection differs from ViewProjection()")
	}
}
