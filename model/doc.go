// Package model defines core types shared by the sketch engine.
//
// # Identity Types
//
//   - DocumentKey: internal ordinal of a document during ingestion (int64).
//     It is never persisted; it is resolved to a public identifier before a
//     sketch record is written.
//   - TokenID: vocabulary-resolved token identifier (uint32)
//
// # Data Types
//
//   - TokenSet: compressed set of TokenIDs (Roaring bitmap)
//   - Entry: one (DocumentKey, TokenSet) pair of the input stream
//   - Chunk: a bounded, locally grouped slice of the input stream
//
// A document's tokens may straddle chunk boundaries. Reassembling them is the
// job of package group.
package model
