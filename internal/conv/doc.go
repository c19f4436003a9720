// Package conv provides checked integer conversions for on-disk fields.
//
// Sketch records store numPerm as int32 and headers store it as uint32, while
// the rest of the code uses int. Values read from disk are untrusted, so every
// narrowing or sign-changing conversion goes through this package.
package conv
