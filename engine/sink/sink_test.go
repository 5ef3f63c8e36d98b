package sink

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackLayout(t *testing.T) {
	mats := []common.Mat4{common.Identity4(), common.Translate(1, 2, 3)}
	data := Pack(mats)
	require.Len(t, data, 2*MatrixSize)

	at := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	assert.Equal(t, float32(1), at(0))
	assert.Equal(t, float32(1), at(5))
	// Translation lives in the last column: elements 12..14 of the second matrix.
	assert.Equal(t, float32(1), at(16+12))
	assert.Equal(t, float32(2), at(16+13))
	assert.Equal(t, float32(3), at(16+14))

	// Pack copies.
	mats[0][0] = 9
	assert.Equal(t, float32(1), at(0))

	assert.Empty(t, Pack(nil))
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink(2)
	assert.Equal(t, 2, s.Capacity())

	mats := []common.Mat4{common.Identity4(), common.Scale(2, 2, 2)}
	require.NoError(t, s.Write(mats))
	mats[1] = common.Identity4()

	assert.Equal(t, uint64(1), s.Frames())
	assert.Equal(t, common.Scale(2, 2, 2), s.Last()[1])
	assert.Len(t, s.Floats(), 32)
	assert.Equal(t, float32(2), s.Floats()[16])

	err := s.Write(make([]common.Mat4, 3))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, uint64(1), s.Frames())
}

func TestNewGPUSinkRejectsBadInput(t *testing.T) {
	_, err := NewGPUSink(nil, "bones", 4)
	assert.Error(t, err)
}
