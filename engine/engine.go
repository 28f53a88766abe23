package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/profiler"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/window"
)

// ErrComponentExists is returned by AddComponent when the name is already registered.
var ErrComponentExists = errors.New("engine: component already registered")

// ErrComponentNotFound is returned when no component is registered under a name.
var ErrComponentNotFound = errors.New("engine: component not found")

// Component is a unit of per-frame GPU work driven by the engine. Update is called inside
// the compute frame and Draw inside the render frame.
type Component interface {
	Start(r renderer.Renderer) error
	Update(dt float32) error
	Draw() error
	Release()
}

// Engine drives the frame loop: one compute frame followed by one render frame per tick,
// over every registered component in registration order.
type Engine interface {
	// Renderer returns the renderer the engine submits to.
	Renderer() renderer.Renderer

	// Window returns the window, or nil for headless engines.
	Window() window.Window

	// Camera returns the camera updated at the start of every frame, or nil.
	Camera() camera.Camera

	// EnableProfiler enables frame rate and memory logging.
	EnableProfiler()

	// DisableProfiler disables frame rate and memory logging.
	DisableProfiler()

	// SetRenderFrameLimit caps the frame rate of Run. Pass 0 to uncap.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetTickCallback registers a function called by Run before every frame.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddComponent starts a component against the engine renderer and registers it.
	//
	// Parameters:
	//   - name: unique component name
	//   - c: the component
	//
	// Returns:
	//   - error: ErrComponentExists or the error returned by Start
	AddComponent(name string, c Component) error

	// ReplaceComponent releases the component registered under name, then starts and
	// registers c in its place. If Start fails the name is left unregistered.
	//
	// Parameters:
	//   - name: the component name
	//   - c: the replacement
	//
	// Returns:
	//   - error: the error returned by Start
	ReplaceComponent(name string, c Component) error

	// RemoveComponent releases and unregisters a component.
	//
	// Parameters:
	//   - name: the component name
	//
	// Returns:
	//   - error: ErrComponentNotFound
	RemoveComponent(name string) error

	// Component returns the component registered under name, or nil.
	Component(name string) Component

	// RunFrame runs one complete frame: camera update, the compute frame with every
	// component Update, the render frame with every component Draw, then Present.
	//
	// Parameters:
	//   - dt: delta time in seconds
	//
	// Returns:
	//   - error: the first failing stage error
	RunFrame(dt float32) error

	// Run calls RunFrame until the context is cancelled, Quit is called, the window
	// closes or the max frame count is reached.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: the first frame error, or nil on a clean stop
	Run(ctx context.Context) error

	// Frames returns the number of frames completed.
	Frames() uint64

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// Release releases every component. The renderer and window stay owned by the caller.
	Release()
}

type engine struct {
	mu sync.Mutex

	renderer renderer.Renderer
	window   window.Window
	camera   camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // 0 = unlimited

	components map[string]Component
	order      []string
	frames     uint64

	quitChannel chan struct{}
	quitOnce    sync.Once

	tickCallback func(deltaTime float32)
}

var _ Engine = &engine{}

// NewEngine creates an Engine bound to a renderer.
//
// Parameters:
//   - r: the renderer frames are submitted to
//   - options: window, camera, profiling and frame limit options
//
// Returns:
//   - Engine: the engine
func NewEngine(r renderer.Renderer, options ...EngineBuilderOption) Engine {
	e := &engine{
		renderer:    r,
		profiler:    profiler.NewProfiler(),
		components:  make(map[string]Component),
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if width <= 0 || height <= 0 {
				return
			}
			if err := e.renderer.Resize(width, height); err != nil {
				common.Logger().Warn("resize failed", "width", width, "height", height, "error", err)
			}
			if e.camera != nil {
				e.camera.SetAspect(float32(width) / float32(height))
			}
		})
	}
	return e
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddComponent(name string, c Component) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.components[name]; ok {
		return fmt.Errorf("%w: %q", ErrComponentExists, name)
	}
	if err := c.Start(e.renderer); err != nil {
		return fmt.Errorf("engine: start %q: %w", name, err)
	}
	e.components[name] = c
	e.order = append(e.order, name)
	return nil
}

func (e *engine) ReplaceComponent(name string, c Component) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.components[name]; ok {
		old.Release()
		e.unregister(name)
	}
	if err := c.Start(e.renderer); err != nil {
		return fmt.Errorf("engine: start %q: %w", name, err)
	}
	e.components[name] = c
	e.order = append(e.order, name)
	return nil
}

func (e *engine) RemoveComponent(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.components[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	c.Release()
	e.unregister(name)
	return nil
}

func (e *engine) Component(name string) Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.components[name]
}

// unregister drops a name from the registry. Callers hold e.mu.
func (e *engine) unregister(name string) {
	delete(e.components, name)
	if i := slices.Index(e.order, name); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
}

func (e *engine) RunFrame(dt float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.camera != nil {
		e.camera.Update()
	}

	if err := e.renderer.BeginComputeFrame(); err != nil {
		return fmt.Errorf("engine: begin compute frame: %w", err)
	}
	for _, name := range e.order {
		if err := e.components[name].Update(dt); err != nil {
			err = fmt.Errorf("engine: update %q: %w", name, err)
			if endErr := e.renderer.EndComputeFrame(); endErr != nil {
				err = errors.Join(err, fmt.Errorf("engine: end compute frame: %w", endErr))
			}
			return err
		}
	}
	if err := e.renderer.EndComputeFrame(); err != nil {
		return fmt.Errorf("engine: end compute frame: %w", err)
	}

	if err := e.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("engine: begin frame: %w", err)
	}
	for _, name := range e.order {
		if err := e.components[name].Draw(); err != nil {
			// The frame is closed and presented so the next BeginFrame can open a new one.
			err = fmt.Errorf("engine: draw %q: %w", name, err)
			if endErr := e.renderer.EndFrame(); endErr != nil {
				return errors.Join(err, fmt.Errorf("engine: end frame: %w", endErr))
			}
			e.renderer.Present()
			return err
		}
	}
	if err := e.renderer.EndFrame(); err != nil {
		return fmt.Errorf("engine: end frame: %w", err)
	}
	e.renderer.Present()

	e.frames++
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Run(ctx context.Context) error {
	lastFrame := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}

		if e.window != nil && !e.window.PollEvents() {
			return nil
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		e.mu.Lock()
		tick, limit, maxFrames := e.tickCallback, e.renderFrameLimit, e.maxFrames
		e.mu.Unlock()

		if tick != nil {
			tick(dt)
		}
		if err := e.RunFrame(dt); err != nil {
			common.Logger().Error("frame failed", "frame", e.Frames(), "error", err)
			return err
		}
		if maxFrames > 0 && e.Frames() >= maxFrames {
			return nil
		}

		if limit > 0 {
			if remaining := limit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Components release in reverse registration order.
	for i := len(e.order) - 1; i >= 0; i-- {
		e.components[e.order[i]].Release()
	}
	clear(e.components)
	e.order = nil
}

// frameDuration converts a frame rate cap to the minimum frame duration.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
