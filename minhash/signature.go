package minhash

import (
	"fmt"
	"slices"
)

// MaxHash is the sentinel minimum of a slot no token reached.
const MaxHash uint32 = 0xFFFFFFFF

// Signature is an immutable MinHash vector plus the seed that produced it.
type Signature struct {
	Seed       int64
	HashValues []uint32
}

// NumPerm returns the number of hash functions in the signature.
func (s Signature) NumPerm() int {
	return len(s.HashValues)
}

// IsEmpty reports whether the signature was built from an empty set.
func (s Signature) IsEmpty() bool {
	for _, v := range s.HashValues {
		if v != MaxHash {
			return false
		}
	}
	return true
}

// Equal reports whether both signatures have the same seed and hash values.
func (s Signature) Equal(other Signature) bool {
	return s.Seed == other.Seed && slices.Equal(s.HashValues, other.HashValues)
}

// Clone returns a deep copy of the signature.
func (s Signature) Clone() Signature {
	return Signature{Seed: s.Seed, HashValues: slices.Clone(s.HashValues)}
}

// Jaccard estimates the Jaccard similarity of the sets behind s and other.
func (s Signature) Jaccard(other Signature) (float64, error) {
	if s.Seed != other.Seed {
		return 0, fmt.Errorf("%w: seed %d vs %d", ErrIncompatible, s.Seed, other.Seed)
	}
	if len(s.HashValues) != len(other.HashValues) {
		return 0, fmt.Errorf("%w: numPerm %d vs %d", ErrIncompatible, len(s.HashValues), len(other.HashValues))
	}
	if len(s.HashValues) == 0 {
		return 0, fmt.Errorf("%w: empty signatures", ErrIncompatible)
	}

	equal := 0
	for i, v := range s.HashValues {
		if v == other.HashValues[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(s.HashValues)), nil
}

func (s Signature) String() string {
	return fmt.Sprintf("Signature(seed=%d, numPerm=%d)", s.Seed, len(s.HashValues))
}
