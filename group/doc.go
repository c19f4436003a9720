// Package group reassembles per-document token sets from an ordered stream.
//
// Upstream ingestion delivers the stream in chunks. Each chunk is grouped by
// document key, but a document may straddle any number of chunk boundaries.
// The Grouper folds the stream with a single accumulator slot: entries with
// the pending key are unioned into it, a new key emits the pending set and
// takes its place, and Flush emits the last one.
//
//	g := group.New(func(key model.DocumentKey, tokens *model.TokenSet) error {
//	    return sign(key, tokens)
//	})
//	for _, e := range entries {
//	    if err := g.Add(e); err != nil {
//	        return err
//	    }
//	}
//	return g.Flush()
//
// Emission order is the first-appearance order of keys. The input must be
// ordered by key: a key that reappears after a different key is emitted twice.
package group
