package lookup

import (
	"maps"
	"slices"

	"github.com/hupe1980/minsketch/model"
)

// Map is an in-memory lookup table.
type Map map[int64]string

// DocumentID implements minsketch.Resolver.
func (m Map) DocumentID(key model.DocumentKey) (string, bool) {
	v, ok := m[int64(key)]
	return v, ok
}

// Token implements minhash.Vocabulary.
func (m Map) Token(id model.TokenID) (string, bool) {
	v, ok := m[int64(id)]
	return v, ok
}

// Values returns the values ordered by key.
func (m Map) Values() []string {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
