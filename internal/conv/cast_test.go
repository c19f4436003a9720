package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt32(t *testing.T) {
	got, err := Int32(128)
	require.NoError(t, err)
	assert.Equal(t, int32(128), got)

	got, err = Int32(math.MinInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), got)

	_, err = Int32(math.MaxInt32 + 1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestUint32(t *testing.T) {
	got, err := Uint32(123)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), got)

	_, err = Uint32(-1)
	assert.ErrorIs(t, err, ErrRange)
	_, err = Uint32(math.MaxUint32 + 1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestCount(t *testing.T) {
	got, err := Count(int32(4))
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	got, err = Count(uint32(math.MaxInt32))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, got)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero int32", func() error { _, err := Count(int32(0)); return err }},
		{"negative int32", func() error { _, err := Count(int32(-3)); return err }},
		{"zero uint32", func() error { _, err := Count(uint32(0)); return err }},
		{"uint32 above int32", func() error { _, err := Count(uint32(math.MaxInt32) + 1); return err }},
		{"negative int", func() error { _, err := Count(-1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), ErrRange)
		})
	}
}
