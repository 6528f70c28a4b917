package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireOOB(t *testing.T, err error) {
	t.Helper()
	var trap *Trap
	require.True(t, errors.As(err, &trap))
	require.Equal(t, TrapCodeMemoryOutOfBounds, trap.Code)
}

func TestMemory_ReadWrite(t *testing.T) {
	mem := NewMemory(1, 1)
	require.Equal(t, uint32(1), mem.Pages())
	require.Equal(t, uint32(PageSize), mem.Size())

	require.NoError(t, mem.WriteUint32(0, 0x01020304))
	v, err := mem.ReadUint32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), v)

	// Little-endian layout.
	b, err := mem.ReadUint8(0)
	require.NoError(t, err)
	require.Equal(t, byte(0x04), b)
	h, err := mem.ReadUint16(2)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), h)

	require.NoError(t, mem.WriteUint64(8, 0x1122334455667788))
	w, err := mem.ReadUint64(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), w)
}

func TestMemory_Bounds(t *testing.T) {
	mem := NewMemory(1, 1)

	// The last legal start address for each width.
	_, err := mem.ReadUint32(PageSize - 4)
	require.NoError(t, err)
	_, err = mem.ReadUint32(PageSize - 3)
	requireOOB(t, err)

	_, err = mem.ReadUint8(PageSize - 1)
	require.NoError(t, err)
	_, err = mem.ReadUint8(PageSize)
	requireOOB(t, err)

	requireOOB(t, mem.WriteUint64(PageSize-7, 1))

	// A huge address must not wrap the bounds check.
	_, err = mem.ReadUint32(0xfffffffc)
	requireOOB(t, err)
}

func TestMemory_Grow(t *testing.T) {
	mem := NewMemory(1, 3)

	require.Equal(t, int32(1), mem.Grow(1))
	require.Equal(t, uint32(2), mem.Pages())

	// New pages are zero-filled and addressable.
	v, err := mem.ReadUint32(PageSize)
	require.NoError(t, err)
	require.Zero(t, v)

	require.Equal(t, int32(-1), mem.Grow(2))
	require.Equal(t, uint32(2), mem.Pages())

	require.Equal(t, int32(2), mem.Grow(1))
	require.Equal(t, int32(-1), mem.Grow(1))
	require.Equal(t, int32(3), mem.Grow(0))
}

func TestMemory_Initialize(t *testing.T) {
	mem := NewMemory(1, 1)
	require.NoError(t, mem.Initialize(10, []byte{1, 2, 3}))
	b, err := mem.ReadUint8(12)
	require.NoError(t, err)
	require.Equal(t, byte(3), b)

	requireOOB(t, mem.Initialize(PageSize-2, []byte{1, 2, 3}))
}
