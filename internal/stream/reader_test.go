package stream

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_LittleEndian(t *testing.T) {
	r := NewReader([]byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xff})

	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	i8, err := r.ReadI8()
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
	assert.True(t, r.Done())
}

func TestReader_EOF(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	_, err := r.ReadU32()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
	assert.Equal(t, 0, r.Offset())
	assert.Equal(t, 2, r.Remaining())

	_, err = r.PeekU8()
	assert.NoError(t, err)
}

func TestReader_Floats(t *testing.T) {
	b := make([]byte, 0, 12)
	f32 := math.Float32bits(1.5)
	b = append(b, byte(f32), byte(f32>>8), byte(f32>>16), byte(f32>>24))
	f64 := math.Float64bits(-2.25)
	for i := 0; i < 8; i++ {
		b = append(b, byte(f64>>(8*i)))
	}
	r := NewReader(b)

	v32, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), v32)

	v64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, -2.25, v64)
}

func TestReader_Seek(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})

	require.NoError(t, r.Seek(2))
	v, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v)

	assert.ErrorIs(t, r.Seek(-1), ErrNegativeOffset)
	assert.ErrorIs(t, r.Seek(4), ErrUnexpectedEOF)
}
