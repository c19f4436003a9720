package minhash

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/hupe1980/minsketch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapVocab map[model.TokenID]string

func (m mapVocab) Token(id model.TokenID) (string, bool) {
	s, ok := m[id]
	return s, ok
}

func newBuilder(t *testing.T, numPerm int, seed int64, family HashFamily) *Builder {
	t.Helper()
	b, err := New(Config{NumPerm: numPerm, Seed: Fixed(seed), Family: family})
	require.NoError(t, err)
	return b
}

func TestBuilder_Deterministic(t *testing.T) {
	for _, family := range []HashFamily{FamilySHA1, FamilyMurmur3, FamilyXXHash} {
		t.Run(family.String(), func(t *testing.T) {
			ts := model.NewTokenSet(10, 20, 30, 4000)

			s1 := newBuilder(t, 128, 7, family).Build(ts, nil)
			s2 := newBuilder(t, 128, 7, family).Build(ts, nil)

			require.Equal(t, 128, s1.NumPerm())
			assert.Equal(t, int64(7), s1.Seed)
			assert.True(t, s1.Equal(s2))
		})
	}
}

func TestBuilder_SeedChangesPermutations(t *testing.T) {
	ts := model.NewTokenSet(1, 2, 3)

	s1 := newBuilder(t, 64, 1, FamilySHA1).Build(ts, nil)
	s2 := newBuilder(t, 64, 2, FamilySHA1).Build(ts, nil)

	assert.False(t, slices.Equal(s1.HashValues, s2.HashValues))
}

func TestBuilder_EmptySet(t *testing.T) {
	b := newBuilder(t, 16, 1, FamilySHA1)

	s1 := b.Build(model.NewTokenSet(), nil)
	s2 := b.Build(model.NewTokenSet(), nil)

	assert.True(t, s1.IsEmpty())
	assert.True(t, s1.Equal(s2))
	for _, v := range s1.HashValues {
		assert.Equal(t, MaxHash, v)
	}

	// A set whose every token is unresolved hashes like the empty set.
	s3 := b.Build(model.NewTokenSet(1, 2), mapVocab{})
	assert.True(t, s3.Equal(s1))
}

func TestBuilder_CanonicalEncoding(t *testing.T) {
	b := newBuilder(t, 32, 1, FamilySHA1)

	byID := b.Build(model.NewTokenSet(12, 345), nil)
	byString := b.BuildStrings(slices.Values([]string{"12", "345"}))
	byBytes := b.BuildBytes(slices.Values([][]byte{[]byte("345"), []byte("12")}))

	assert.True(t, byID.Equal(byString))
	assert.True(t, byID.Equal(byBytes))
}

func TestBuilder_VocabularySkipsUnknown(t *testing.T) {
	b := newBuilder(t, 32, 1, FamilySHA1)
	vocab := mapVocab{1: "the", 2: "whale"}

	withUnknown := b.Build(model.NewTokenSet(1, 2, 99), vocab)
	known := b.BuildStrings(slices.Values([]string{"the", "whale"}))

	assert.True(t, withUnknown.Equal(known))
}

func TestBuilder_NonDegenerate(t *testing.T) {
	b := newBuilder(t, 128, 1, FamilySHA1)
	r := rand.New(rand.NewPCG(42, 42))

	const trials = 200
	collisions := 0
	for range trials {
		a := model.NewTokenSet()
		c := model.NewTokenSet()
		for range 1 + r.IntN(20) {
			a.Add(r.Uint32N(1 << 20))
		}
		for range 1 + r.IntN(20) {
			c.Add((1 << 20) + r.Uint32N(1<<20))
		}
		if b.Build(a, nil).Equal(b.Build(c, nil)) {
			collisions++
		}
	}
	assert.Zero(t, collisions)
}

func TestBuilder_JaccardEstimate(t *testing.T) {
	b := newBuilder(t, 256, 1, FamilySHA1)

	a := model.NewTokenSet()
	c := model.NewTokenSet()
	for i := model.TokenID(0); i < 1000; i++ {
		a.Add(i)
		c.Add(i + 500) // overlap 500 / union 1500
	}

	sim, err := b.Build(a, nil).Jaccard(b.Build(c, nil))
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, sim, 0.1)

	same, err := b.Build(a, nil).Jaccard(b.Build(a.Clone(), nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, same)
}

func TestBuilder_RandomSeed(t *testing.T) {
	b, err := New(Config{NumPerm: 8, Seed: Random()})
	require.NoError(t, err)
	assert.Equal(t, SeedRandom, b.SeedPolicy())

	ts := model.NewTokenSet(1, 2, 3)
	s1 := b.Build(ts, nil)
	s2 := b.Build(ts, nil)
	assert.True(t, s1.Equal(s2))
	assert.Equal(t, b.Seed(), s1.Seed)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"default", DefaultConfig(), nil},
		{"zero numPerm selects default", Config{}, nil},
		{"negative numPerm", Config{NumPerm: -1}, ErrInvalidNumPerm},
		{"numPerm above max", Config{NumPerm: MaxNumPerm + 1}, ErrInvalidNumPerm},
		{"unknown family", Config{NumPerm: 4, Family: HashFamily(42)}, ErrUnknownFamily},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	b, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultNumPerm, b.NumPerm())
}

func TestParseHashFamily(t *testing.T) {
	for _, f := range []HashFamily{FamilySHA1, FamilyMurmur3, FamilyXXHash} {
		got, err := ParseHashFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseHashFamily("md5")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
