package catalog

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/minsketch/minhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return &Catalog{
		Version:    CurrentVersion,
		Generation: 7,
		CreatedAt:  time.Unix(1700000000, 42),
		Shards: []Shard{
			{Name: "hashes.0.dat", NumPerm: 128, Seed: 1, Family: minhash.FamilySHA1, Records: 10, Bytes: 5152},
			{Name: "hashes.1.dat", NumPerm: 128, Seed: 1, Family: minhash.FamilySHA1, Records: 0, Bytes: 32},
		},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	c := testCatalog()

	var buf bytes.Buffer
	require.NoError(t, c.WriteBinary(&buf))

	c2, err := ReadBinary(&buf)
	require.NoError(t, err)

	assert.Equal(t, c.Generation, c2.Generation)
	assert.True(t, c.CreatedAt.Equal(c2.CreatedAt))
	assert.Equal(t, c.Shards, c2.Shards)
	assert.Equal(t, int64(10), c2.Records())
}

func TestReadBinary_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testCatalog().WriteBinary(&buf))
	data := buf.Bytes()

	t.Run("checksum", func(t *testing.T) {
		b := bytes.Clone(data)
		b[len(b)-1] ^= 0xFF
		_, err := ReadBinary(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("magic", func(t *testing.T) {
		b := bytes.Clone(data)
		b[0] ^= 0xFF
		_, err := ReadBinary(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("version", func(t *testing.T) {
		b := bytes.Clone(data)
		binary.LittleEndian.PutUint32(b[4:8], 99)
		_, err := ReadBinary(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadBinary(bytes.NewReader(data[:len(data)-3]))
		assert.Error(t, err)
	})
}

func TestWriteBinary_Invalid(t *testing.T) {
	c := New(Shard{Name: "x", NumPerm: 0})
	assert.ErrorIs(t, c.WriteBinary(&bytes.Buffer{}), minhash.ErrInvalidNumPerm)

	c = New(Shard{Name: strings.Repeat("a", 1<<16), NumPerm: 1})
	assert.Error(t, c.WriteBinary(&bytes.Buffer{}))
}

func TestCatalog_Validate(t *testing.T) {
	c := testCatalog()
	require.NoError(t, c.Validate())

	c.Shards[1].Seed = 2
	assert.ErrorIs(t, c.Validate(), ErrMixedParameters)

	assert.NoError(t, New().Validate())
}

func TestCatalog_Find(t *testing.T) {
	c := testCatalog()
	s, ok := c.Find("hashes.1.dat")
	require.True(t, ok)
	assert.Equal(t, int64(32), s.Bytes)

	_, ok = c.Find("missing")
	assert.False(t, ok)
}
