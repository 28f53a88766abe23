package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/go-gl/mathgl/mgl32"
)

// framingMargin widens the fitted distance so the bounds do not touch the screen edges.
const framingMargin = 1.15

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4

	controller CameraController
}

// Camera holds perspective settings and computes view/projection matrices from an attached
// CameraController on each Update. Projections use the WebGPU [0, 1] depth range.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetAspect sets the aspect ratio and recomputes matrices. Non-positive values are ignored.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// Controller returns the attached controller or nil.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a controller and recomputes matrices.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// View returns the view matrix.
	View() mgl32.Mat4

	// Projection returns the projection matrix.
	Projection() mgl32.Mat4

	// ViewProjection returns projection times view.
	ViewProjection() mgl32.Mat4

	// Position returns the eye position reported by the controller, or the origin without one.
	Position() mgl32.Vec3

	// FrameBounds points the controller at the center of b and sets the radius so the
	// sphere enclosing b fits the vertical field of view. The far plane is pushed out to
	// contain the whole box.
	//
	// Parameters:
	//   - b: the volume to frame
	FrameBounds(b common.Bounds)

	// Uniform returns the camera state in GPU layout.
	//
	// Returns:
	//   - GPUCameraUniform: view-projection and eye position
	Uniform() GPUCameraUniform

	// Update recomputes matrices from the controller. Call once per frame after input.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 45 degree field of view and a 16:9 aspect ratio.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:             &sync.Mutex{},
		up:             mgl32.Vec3{0, 1, 0},
		fov:            45 * common.Deg2Rad,
		aspect:         16.0 / 9.0,
		near:           0.1,
		far:            1000,
		view:           mgl32.Ident4(),
		projection:     mgl32.Ident4(),
		viewProjection: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return mgl32.Vec3{}
	}
	return c.controller.Position()
}

func (c *cameraImpl) FrameBounds(b common.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		c.controller = NewOrbitController()
	}

	radius := b.Radius()
	distance := radius / float32(math.Sin(float64(c.fov)/2)) * framingMargin
	c.controller.SetRadiusBounds(c.near*2, max(distance*8, c.near*4))
	c.controller.SetTarget(b.Center)
	c.controller.SetRadius(distance)
	c.far = max(c.far, (distance+radius)*2)
	c.updateMatrices()
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := GPUCameraUniform{ViewProj: c.viewProjection}
	if c.controller != nil {
		u.CameraPosition = c.controller.Position()
	}
	return u
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

// updateMatrices recomputes view and projection. The view stays identity without a controller.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.projection = common.WebGPUPerspective(c.fov, c.aspect, c.near, c.far)
	if c.controller != nil {
		c.view = mgl32.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
	}
	c.viewProjection = c.projection.Mul4(c.view)
}
