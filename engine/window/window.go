package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a desktop window that owns the presentation surface and forwards input.
// It satisfies renderer.SurfaceSource. All methods must be called from the goroutine
// that created the window.
type Window interface {
	// SetResizeCallback registers the handler for framebuffer size changes in pixels.
	//
	// Parameters:
	//   - callback: receives the new width and height
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback registers the handler for vertical wheel movement.
	// Positive delta means scrolling up.
	//
	// Parameters:
	//   - callback: receives the wheel delta
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback registers the handler for key presses and repeats.
	//
	// Parameters:
	//   - callback: receives the key code (see the Key constants in common)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback registers the handler for key releases.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallback registers the handler for cursor movement while the left or middle
	// mouse button is held.
	//
	// Parameters:
	//   - callback: receives the cursor delta in pixels since the previous event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns the wgpu surface descriptor for this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform descriptor, or nil once closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents processes pending input without blocking.
	//
	// Returns:
	//   - bool: false once the window was asked to close
	PollEvents() bool

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window. Safe to call more than once.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// size limits applied to user resizing
	maxWidth, maxHeight int
	minWidth, minHeight int

	// width and height are the framebuffer size in pixels.
	width, height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onDrag    func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. Applies default values first, then each option in order.
// The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Dokaben",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformPollEvents(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
