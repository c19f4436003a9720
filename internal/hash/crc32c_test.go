package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Known answer for the iSCSI check string.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestCRC32C_Streaming(t *testing.T) {
	data := []byte("MHSKETCH header payload")

	h := NewCRC32C()
	_, _ = h.Write(data[:8])
	_, _ = h.Write(data[8:])
	assert.Equal(t, CRC32C(data), h.Sum32())

	assert.Equal(t, CRC32C(data), UpdateCRC32C(CRC32C(data[:5]), data[5:]))
}
