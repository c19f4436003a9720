package sketchfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/minsketch/codec"
	"github.com/hupe1980/minsketch/internal/conv"
	"github.com/hupe1980/minsketch/internal/hash"
	"github.com/hupe1980/minsketch/minhash"
)

const (
	// HeaderSize is the encoded size of a Header.
	HeaderSize = 32
	// Version is the header format version written by this package.
	Version uint16 = 1
)

// Magic starts every file written with a header.
var Magic = [8]byte{'M', 'H', 'S', 'K', 'E', 'T', 'C', 'H'}

// Header describes the signatures stored in a file.
//
// Encoding (little-endian):
//
//	0   8  magic
//	8   2  version
//	10  1  seed policy
//	11  1  hash family
//	12  4  numPerm
//	16  8  seed
//	24  4  reserved
//	28  4  CRC32C of bytes 0..27
type Header struct {
	Version    uint16
	SeedPolicy minhash.SeedPolicyKind
	Family     minhash.HashFamily
	NumPerm    int
	Seed       int64
}

// HasMagic reports whether b starts with the header magic.
func HasMagic(b []byte) bool {
	return len(b) >= len(Magic) && bytes.Equal(b[:len(Magic)], Magic[:])
}

// AppendBinary appends the encoded header to dst.
func (h Header) AppendBinary(dst []byte) ([]byte, error) {
	numPerm, err := conv.Count(h.NumPerm)
	if err != nil || h.NumPerm > minhash.MaxNumPerm {
		return dst, fmt.Errorf("%w: numPerm %d", ErrInvalidHeader, h.NumPerm)
	}
	version := h.Version
	if version == 0 {
		version = Version
	}

	start := len(dst)
	dst = append(dst, Magic[:]...)
	dst = binary.LittleEndian.AppendUint16(dst, version)
	dst = append(dst, byte(h.SeedPolicy), byte(h.Family))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(numPerm))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(h.Seed))
	dst = binary.LittleEndian.AppendUint32(dst, 0)
	dst = binary.LittleEndian.AppendUint32(dst, hash.CRC32C(dst[start:]))
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Header) UnmarshalBinary(b []byte) error {
	parsed, err := ParseHeader(b)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHeader decodes and verifies the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(b), HeaderSize)
	}
	if !HasMagic(b) {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, b[:len(Magic)])
	}
	want := binary.LittleEndian.Uint32(b[28:32])
	if got := hash.CRC32C(b[:28]); got != want {
		return Header{}, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", ErrInvalidHeader, got, want)
	}

	h := Header{
		Version:    binary.LittleEndian.Uint16(b[8:10]),
		SeedPolicy: minhash.SeedPolicyKind(b[10]),
		Family:     minhash.HashFamily(b[11]),
		Seed:       int64(binary.LittleEndian.Uint64(b[16:24])),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, h.Version)
	}
	stored := binary.LittleEndian.Uint32(b[12:16])
	numPerm, err := conv.Count(stored)
	if err != nil || numPerm > minhash.MaxNumPerm {
		return Header{}, fmt.Errorf("%w: numPerm %d", ErrInvalidHeader, stored)
	}
	h.NumPerm = numPerm
	return h, nil
}

// HeaderFor returns the header describing signatures built by b.
func HeaderFor(b *minhash.Builder) Header {
	return Header{
		Version:    Version,
		SeedPolicy: b.SeedPolicy(),
		Family:     b.Family(),
		NumPerm:    b.NumPerm(),
		Seed:       b.Seed(),
	}
}

// RecordSize returns the size of one record in the file.
func (h Header) RecordSize() int {
	return codec.RecordSize(h.NumPerm)
}
