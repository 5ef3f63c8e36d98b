package common

// KeyCode is a virtual key code for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type KeyCode uint32

const (
	KeyW     KeyCode = 87  // W key (ASCII)
	KeyA     KeyCode = 65  // A key (ASCII)
	KeyS     KeyCode = 83  // S key (ASCII)
	KeyD     KeyCode = 68  // D key (ASCII)
	KeyQ     KeyCode = 81  // Q key (ASCII)
	KeyE     KeyCode = 69  // E key (ASCII)
	KeyB     KeyCode = 66  // B key (ASCII)
	KeyN     KeyCode = 78  // N key (ASCII)
	KeyR     KeyCode = 82  // R key (ASCII)
	KeySpace KeyCode = 32  // Spacebar (ASCII)
	KeyEsc   KeyCode = 256 // Escape key (GLFW)
)

// Additional non-printable keys
const (
	KeyLeftShift  KeyCode = 340 // Left Shift (GLFW)
	KeyRightShift KeyCode = 344 // Right Shift (GLFW)
)
