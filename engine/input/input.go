package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/common"
)

// Keyboard reports the instantaneous state of keys.
type Keyboard interface {
	// IsKeyDown reports whether the key is currently held.
	IsKeyDown(key common.KeyCode) bool
}

// KeyState is a Keyboard fed by key press and release events. It is safe for concurrent use.
type KeyState struct {
	mu   sync.RWMutex
	down map[common.KeyCode]bool
}

var _ Keyboard = &KeyState{}

// NewKeyState creates an empty KeyState.
func NewKeyState() *KeyState {
	return &KeyState{down: make(map[common.KeyCode]bool)}
}

// Press marks the key as held.
func (k *KeyState) Press(key common.KeyCode) {
	k.mu.Lock()
	k.down[key] = true
	k.mu.Unlock()
}

// Release marks the key as not held.
func (k *KeyState) Release(key common.KeyCode) {
	k.mu.Lock()
	delete(k.down, key)
	k.mu.Unlock()
}

// Reset releases every key.
func (k *KeyState) Reset() {
	k.mu.Lock()
	clear(k.down)
	k.mu.Unlock()
}

func (k *KeyState) IsKeyDown(key common.KeyCode) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.down[key]
}
