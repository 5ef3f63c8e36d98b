package sink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/common"
)

// MatrixSize is the byte size of one packed bone matrix.
const MatrixSize = 16 * 4

// ErrCapacityExceeded is returned when a write carries more matrices than the sink holds.
var ErrCapacityExceeded = errors.New("bone matrix count exceeds sink capacity")

// Sink receives the final bone matrices of a frame, ordered by bone index, for upload to
// whatever consumes them (a GPU buffer, a test harness).
type Sink interface {
	// Write uploads the bone matrices for the current frame.
	//
	// Parameters:
	//   - boneMats: final bone matrices in bone-index order
	//
	// Returns:
	//   - error: ErrCapacityExceeded if len(boneMats) exceeds Capacity
	Write(boneMats []common.Mat4) error

	// Capacity returns the maximum number of matrices a single Write accepts.
	//
	// Returns:
	//   - int: the matrix capacity
	Capacity() int
}

// Pack flattens bone matrices into the contiguous byte layout uploaded to the GPU:
// column-major float32 matrices back to back in bone-index order. The result is a copy.
func Pack(boneMats []common.Mat4) []byte {
	out := make([]byte, len(boneMats)*MatrixSize)
	copy(out, common.SliceToBytes(boneMats))
	return out
}

func checkCapacity(n, capacity int) error {
	if n > capacity {
		return fmt.Errorf("%w: %d matrices, capacity %d", ErrCapacityExceeded, n, capacity)
	}
	return nil
}

// MemorySink keeps a copy of the most recent write. It is safe for concurrent use.
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	last     []common.Mat4
	frames   uint64
}

var _ Sink = &MemorySink{}

// NewMemorySink creates a MemorySink holding up to capacity matrices.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Write(boneMats []common.Mat4) error {
	if err := checkCapacity(len(boneMats), s.capacity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], boneMats...)
	s.frames++
	return nil
}

func (s *MemorySink) Capacity() int {
	return s.capacity
}

// Last returns a copy of the most recently written matrices.
func (s *MemorySink) Last() []common.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Mat4(nil), s.last...)
}

// Frames returns the number of successful writes.
func (s *MemorySink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Floats returns the most recent write flattened to float32s.
func (s *MemorySink) Floats() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float32, 0, len(s.last)*16)
	for _, m := range s.last {
		out = append(out, m[:]...)
	}
	return out
}
