package model

import (
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// DocumentKey is the internal ordinal of a document during ingestion.
type DocumentKey int64

// String returns a string representation of the DocumentKey.
func (k DocumentKey) String() string {
	return fmt.Sprintf("Doc(%d)", int64(k))
}

// TokenID identifies a vocabulary entry.
type TokenID = uint32

// TokenSet is the set of tokens observed for one document.
//
// The zero value is not usable; use NewTokenSet.
type TokenSet struct {
	rb *roaring.Bitmap
}

// NewTokenSet creates a TokenSet containing ids.
func NewTokenSet(ids ...TokenID) *TokenSet {
	return &TokenSet{rb: roaring.BitmapOf(ids...)}
}

// Add inserts a token into the set.
func (s *TokenSet) Add(id TokenID) {
	s.rb.Add(id)
}

// Contains reports whether id is in the set.
func (s *TokenSet) Contains(id TokenID) bool {
	return s.rb.Contains(id)
}

// Len returns the number of distinct tokens.
func (s *TokenSet) Len() int {
	if s == nil || s.rb == nil {
		return 0
	}
	return int(s.rb.GetCardinality())
}

// Union merges other into s in place and reports whether s grew.
func (s *TokenSet) Union(other *TokenSet) (grew bool) {
	if other == nil || other.Len() == 0 {
		return false
	}
	before := s.rb.GetCardinality()
	s.rb.Or(other.rb)
	return s.rb.GetCardinality() > before
}

// Equal reports whether both sets hold the same tokens.
func (s *TokenSet) Equal(other *TokenSet) bool {
	if s.Len() == 0 || other.Len() == 0 {
		return s.Len() == other.Len()
	}
	return s.rb.Equals(other.rb)
}

// Clone returns a deep copy of the set.
func (s *TokenSet) Clone() *TokenSet {
	return &TokenSet{rb: s.rb.Clone()}
}

// Slice returns the tokens in ascending order.
func (s *TokenSet) Slice() []TokenID {
	return s.rb.ToArray()
}

// All iterates the tokens in ascending order.
func (s *TokenSet) All() iter.Seq[TokenID] {
	return func(yield func(TokenID) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Entry is one element of the ingestion stream.
type Entry struct {
	Key    DocumentKey
	Tokens *TokenSet
}

// NewEntry creates an Entry for key holding the given tokens.
func NewEntry(key DocumentKey, ids ...TokenID) Entry {
	return Entry{Key: key, Tokens: NewTokenSet(ids...)}
}

// Chunk is an ordered, locally grouped run of entries.
//
// Keys do not repeat inside a chunk except across its boundaries with the
// previous and next chunk.
type Chunk []Entry
