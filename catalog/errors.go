package catalog

import "errors"

var (
	// ErrIncompatibleVersion is returned when the catalog version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible catalog version")

	// ErrNotFound is returned when no catalog has been committed.
	ErrNotFound = errors.New("catalog not found")

	// ErrCorrupt is returned when a catalog fails its magic or checksum test.
	ErrCorrupt = errors.New("corrupt catalog")

	// ErrMixedParameters is returned when shards disagree on numPerm, seed or
	// hash family.
	ErrMixedParameters = errors.New("shards use different signature parameters")
)
