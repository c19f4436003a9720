package minhash

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	// DefaultNumPerm is the number of hash functions used when none is configured.
	DefaultNumPerm = 128
	// DefaultSeed is the seed used by Fixed policies created without a value.
	DefaultSeed int64 = 1
	// MaxNumPerm bounds the signature length. Readers reject larger values
	// before sizing any buffer from them.
	MaxNumPerm = 1 << 20
)

var (
	// ErrInvalidNumPerm is returned when numPerm is not in [1, MaxNumPerm].
	ErrInvalidNumPerm = errors.New("numPerm must be in [1, 1048576]")
	// ErrUnknownFamily is returned for an unsupported HashFamily.
	ErrUnknownFamily = errors.New("unknown hash family")
	// ErrIncompatible is returned when comparing signatures of different
	// size or seed.
	ErrIncompatible = errors.New("incompatible signatures")
)

// SeedPolicyKind enumerates how the permutation seed is chosen.
type SeedPolicyKind uint8

const (
	// SeedFixed uses a caller supplied seed.
	SeedFixed SeedPolicyKind = 0
	// SeedRandom draws a seed once per Builder.
	SeedRandom SeedPolicyKind = 1
)

func (k SeedPolicyKind) String() string {
	switch k {
	case SeedFixed:
		return "fixed"
	case SeedRandom:
		return "random"
	default:
		return fmt.Sprintf("SeedPolicyKind(%d)", uint8(k))
	}
}

// SeedPolicy selects the seed of the hash-function family.
type SeedPolicy struct {
	Kind SeedPolicyKind
	Seed int64
}

// Fixed returns a policy that always uses seed.
func Fixed(seed int64) SeedPolicy {
	return SeedPolicy{Kind: SeedFixed, Seed: seed}
}

// Random returns a policy that draws a fresh seed per Builder.
func Random() SeedPolicy {
	return SeedPolicy{Kind: SeedRandom}
}

func (p SeedPolicy) resolve() int64 {
	if p.Kind == SeedRandom {
		return rand.Int64()
	}
	return p.Seed
}

// Config enumerates everything that parameterizes a Builder.
type Config struct {
	// NumPerm is the signature length. Zero selects DefaultNumPerm.
	NumPerm int
	// Seed selects the permutation seed. The zero value is Fixed(0); use
	// DefaultConfig for the conventional seed of 1.
	Seed SeedPolicy
	// Family is the base token hash. The zero value is FamilySHA1.
	Family HashFamily
}

// DefaultConfig returns a 128-permutation SHA-1 configuration with seed 1.
func DefaultConfig() Config {
	return Config{
		NumPerm: DefaultNumPerm,
		Seed:    Fixed(DefaultSeed),
		Family:  FamilySHA1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumPerm < 0 || c.NumPerm > MaxNumPerm {
		return fmt.Errorf("%w: got %d", ErrInvalidNumPerm, c.NumPerm)
	}
	if c.Seed.Kind != SeedFixed && c.Seed.Kind != SeedRandom {
		return fmt.Errorf("invalid seed policy: %s", c.Seed.Kind)
	}
	if _, ok := baseHashes[c.Family]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFamily, c.Family)
	}
	return nil
}
