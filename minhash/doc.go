// Package minhash builds MinHash signatures over token sets.
//
// A Builder owns numPerm universal hash functions
//
//	h_i(x) = ((a_i*x + b_i) mod p) & 0xFFFFFFFF,  p = 2^61 - 1
//
// applied on top of a 32-bit base hash of each token. The signature keeps the
// per-function minimum. The fraction of equal slots between two signatures
// estimates the Jaccard similarity of the underlying sets.
//
// # Canonical Token Encoding
//
// Tokens are hashed as bytes. Without a Vocabulary the bytes are the decimal
// ASCII form of the token id; with one they are the vocabulary string, and ids
// the vocabulary cannot resolve are skipped. Two builders only produce
// comparable signatures when they share the encoding, the HashFamily, numPerm
// and the seed. The permutations are drawn from math/rand/v2's PCG, so a seed
// here selects different functions than the same seed in datasketch.
//
// # Usage
//
//	b, err := minhash.New(minhash.Config{NumPerm: 128, Seed: minhash.Fixed(1)})
//	if err != nil {
//	    return err
//	}
//	sig := b.Build(tokens, nil)
//	sim, _ := sig.Jaccard(other)
package minhash
