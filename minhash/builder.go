package minhash

import (
	"iter"
	"math/rand/v2"
	"strconv"

	"github.com/hupe1980/minsketch/model"
)

const (
	mersennePrime uint64 = (1 << 61) - 1
	// pcgStream is the fixed second PCG word, so a seed alone selects the
	// permutations.
	pcgStream uint64 = 0x9E3779B97F4A7C15
)

// Vocabulary maps token ids to their canonical strings.
type Vocabulary interface {
	// Token returns the string for id, or false if id is unknown.
	Token(id model.TokenID) (string, bool)
}

// Builder computes signatures for a fixed hash-function family.
// A Builder is immutable and safe for concurrent use.
type Builder struct {
	numPerm int
	seed    int64
	policy  SeedPolicyKind
	family  HashFamily
	hash    baseHash
	a       []uint64
	b       []uint64
}

// New validates cfg and derives the permutations.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NumPerm == 0 {
		cfg.NumPerm = DefaultNumPerm
	}

	seed := cfg.Seed.resolve()
	a, b := permutations(seed, cfg.NumPerm)

	return &Builder{
		numPerm: cfg.NumPerm,
		seed:    seed,
		policy:  cfg.Seed.Kind,
		family:  cfg.Family,
		hash:    baseHashes[cfg.Family],
		a:       a,
		b:       b,
	}, nil
}

func permutations(seed int64, n int) ([]uint64, []uint64) {
	r := rand.New(rand.NewPCG(uint64(seed), pcgStream))
	a := make([]uint64, n)
	b := make([]uint64, n)
	for i := range n {
		a[i] = r.Uint64N(mersennePrime-1) + 1
	}
	for i := range n {
		b[i] = r.Uint64N(mersennePrime)
	}
	return a, b
}

// NumPerm returns the signature length.
func (b *Builder) NumPerm() int { return b.numPerm }

// Seed returns the resolved seed.
func (b *Builder) Seed() int64 { return b.seed }

// SeedPolicy returns how the seed was chosen.
func (b *Builder) SeedPolicy() SeedPolicyKind { return b.policy }

// Family returns the base hash family.
func (b *Builder) Family() HashFamily { return b.family }

// Build hashes every token of ts. If vocab is nil tokens are encoded as
// decimal ids, otherwise as vocabulary strings with unknown ids skipped.
func (b *Builder) Build(ts *model.TokenSet, vocab Vocabulary) Signature {
	acc := b.newAccumulator()
	if ts.Len() == 0 {
		return acc.signature()
	}

	var scratch []byte
	for id := range ts.All() {
		if vocab == nil {
			scratch = strconv.AppendUint(scratch[:0], uint64(id), 10)
		} else {
			tok, ok := vocab.Token(id)
			if !ok {
				continue
			}
			scratch = append(scratch[:0], tok...)
		}
		acc.update(scratch)
	}
	return acc.signature()
}

// BuildStrings hashes already-canonical token strings.
func (b *Builder) BuildStrings(tokens iter.Seq[string]) Signature {
	acc := b.newAccumulator()
	var scratch []byte
	for tok := range tokens {
		scratch = append(scratch[:0], tok...)
		acc.update(scratch)
	}
	return acc.signature()
}

// BuildBytes hashes raw token encodings.
func (b *Builder) BuildBytes(tokens iter.Seq[[]byte]) Signature {
	acc := b.newAccumulator()
	for tok := range tokens {
		acc.update(tok)
	}
	return acc.signature()
}

type accumulator struct {
	b      *Builder
	values []uint32
}

func (b *Builder) newAccumulator() *accumulator {
	values := make([]uint32, b.numPerm)
	for i := range values {
		values[i] = MaxHash
	}
	return &accumulator{b: b, values: values}
}

func (acc *accumulator) update(data []byte) {
	hv := uint64(acc.b.hash(data))
	a, bb := acc.b.a, acc.b.b
	for i := range acc.values {
		// Wrapping multiply before the modulo is part of the family definition.
		phv := uint32(((a[i]*hv + bb[i]) % mersennePrime) & uint64(MaxHash))
		if phv < acc.values[i] {
			acc.values[i] = phv
		}
	}
}

func (acc *accumulator) signature() Signature {
	return Signature{Seed: acc.b.seed, HashValues: acc.values}
}
