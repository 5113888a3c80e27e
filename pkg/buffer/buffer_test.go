package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Reservation Tests
// ============================================================================

func TestReserve(t *testing.T) {
	t.Run("HandsOutSequentialChunks", func(t *testing.T) {
		region := make([]byte, 16)
		m := NewManager(region)

		a, err := m.Reserve(4)
		require.NoError(t, err)
		b, err := m.Reserve(4)
		require.NoError(t, err)

		copy(a, "aaaa")
		copy(b, "bbbb")
		assert.Equal(t, "aaaabbbb", string(region[:8]))
		assert.Equal(t, 8, m.Remaining())
	})

	t.Run("ChunksDoNotOverlap", func(t *testing.T) {
		region := make([]byte, 8)
		m := NewManager(region)

		a, err := m.Reserve(4)
		require.NoError(t, err)
		b, err := m.Reserve(4)
		require.NoError(t, err)

		copy(b, "bbbb")
		copy(a, "aaaa")
		assert.Equal(t, "bbbb", string(b), "writing a must not clobber b")
	})

	t.Run("ChunkCapacityIsClamped", func(t *testing.T) {
		region := make([]byte, 8)
		m := NewManager(region)

		a, err := m.Reserve(4)
		require.NoError(t, err)

		// Appending must reallocate instead of growing into the neighbour.
		a = append(a, 'x')
		assert.Equal(t, byte(0), region[4])
	})

	t.Run("ExactFitSucceeds", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		_, err := m.Reserve(4)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Remaining())
	})

	t.Run("ZeroByteReservation", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		chunk, err := m.Reserve(0)
		require.NoError(t, err)
		assert.Len(t, chunk, 0)
		assert.Equal(t, 4, m.Remaining())
	})

	t.Run("OverflowFails", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		_, err := m.Reserve(5)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})

	t.Run("ExhaustedManagerKeepsFailing", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		_, err := m.Reserve(4)
		require.NoError(t, err)

		_, err = m.Reserve(1)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
		_, err = m.Reserve(1)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})

	t.Run("NegativeReservationFails", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		_, err := m.Reserve(-1)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})

	t.Run("EmptyRegion", func(t *testing.T) {
		m := NewManager(nil)

		_, err := m.Reserve(0)
		require.NoError(t, err)
		_, err = m.Reserve(1)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})
}

// ============================================================================
// String Packing Tests
// ============================================================================

func TestReserveString(t *testing.T) {
	t.Run("CopiesIntoRegion", func(t *testing.T) {
		region := make([]byte, 16)
		m := NewManager(region)

		chunk, err := m.ReserveString("alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", string(chunk))
		assert.Equal(t, "alice", string(region[:5]))
	})

	t.Run("FailsWhenTooLong", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		_, err := m.ReserveString("alice")
		assert.ErrorIs(t, err, ErrInsufficientSpace)
		assert.Equal(t, 4, m.Remaining(), "failed reservation must not consume space")
	})

	t.Run("EmptyString", func(t *testing.T) {
		m := NewManager(make([]byte, 4))

		chunk, err := m.ReserveString("")
		require.NoError(t, err)
		assert.Len(t, chunk, 0)
	})
}
