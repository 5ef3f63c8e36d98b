package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/input"
)

// Window provides platform windowing and keyboard state for the interactive viewer.
// It satisfies input.Keyboard so a PoseController can read keys directly from it.
type Window interface {
	input.Keyboard

	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function receiving the seconds elapsed since the previous iteration (or nil to disable)
	SetUpdateCallback(callback func(dt float64))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(key common.KeyCode))

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Time returns the seconds elapsed since the window was created.
	//
	// Returns:
	//   - float64: elapsed time in seconds
	Time() float64

	// Width returns the current window client area width in pixels.
	Width() int

	// Height returns the current window client area height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title  string
	width  int
	height int

	// keys tracks held keys from the platform key callback.
	keys *input.KeyState

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func(dt float64)
	onKeyDown func(key common.KeyCode)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:  "oxy-skin",
		width:  1280,
		height: 720,
		keys:   input.NewKeyState(),
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) IsKeyDown(key common.KeyCode) bool {
	return w.keys.IsKeyDown(key)
}

func (w *engineWindow) SetUpdateCallback(callback func(dt float64)) {
	w.onUpdate = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key common.KeyCode)) {
	w.onKeyDown = callback
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	w.keys.Reset()
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	last := w.Time()
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		now := w.Time()
		if w.onUpdate != nil {
			w.onUpdate(now - last)
		}
		last = now

		runtime.Gosched()
	}
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// keyEvent records a platform key transition and forwards presses to the callback.
func (w *engineWindow) keyEvent(key common.KeyCode, pressed bool) {
	if !pressed {
		w.keys.Release(key)
		return
	}
	w.keys.Press(key)
	if w.onKeyDown != nil {
		w.onKeyDown(key)
	}
}
