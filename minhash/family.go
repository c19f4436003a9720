package minhash

import (
	"crypto/sha1" //nolint:gosec // compatibility hash, not used for security
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// HashFamily identifies the 32-bit base hash applied to each token.
//
// The value is persisted in sketch file headers; never renumber.
type HashFamily uint8

const (
	// FamilySHA1 uses the first four bytes of SHA-1, read little-endian.
	// The base hash matches datasketch, but the (a, b) pairs come from a
	// seeded PCG stream rather than numpy's RandomState, so signatures are
	// not comparable with files written by datasketch-based tools.
	FamilySHA1 HashFamily = 0
	// FamilyMurmur3 uses 32-bit MurmurHash3 with seed 0.
	FamilyMurmur3 HashFamily = 1
	// FamilyXXHash uses the low 32 bits of XXH64.
	FamilyXXHash HashFamily = 2
)

type baseHash func(data []byte) uint32

var baseHashes = map[HashFamily]baseHash{
	FamilySHA1:    sha1Hash32,
	FamilyMurmur3: murmur3.Sum32,
	FamilyXXHash:  xxHash32,
}

func sha1Hash32(data []byte) uint32 {
	sum := sha1.Sum(data) //nolint:gosec
	return binary.LittleEndian.Uint32(sum[:4])
}

func xxHash32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

func (f HashFamily) String() string {
	switch f {
	case FamilySHA1:
		return "sha1"
	case FamilyMurmur3:
		return "murmur3"
	case FamilyXXHash:
		return "xxhash"
	default:
		return fmt.Sprintf("HashFamily(%d)", uint8(f))
	}
}

// ParseHashFamily returns the family with the given name.
func ParseHashFamily(name string) (HashFamily, error) {
	switch name {
	case "", "sha1":
		return FamilySHA1, nil
	case "murmur3":
		return FamilyMurmur3, nil
	case "xxhash":
		return FamilyXXHash, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
}
