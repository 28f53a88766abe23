package common

// Virtual key codes delivered to window key callbacks. The values match GLFW key codes,
// which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyR     = 82  // R key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeyLeft  = 263 // Left arrow (GLFW_KEY_LEFT)
	KeyRight = 262 // Right arrow (GLFW_KEY_RIGHT)
	KeyUp    = 265 // Up arrow (GLFW_KEY_UP)
	KeyDown  = 264 // Down arrow (GLFW_KEY_DOWN)
)
