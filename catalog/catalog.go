package catalog

import (
	"fmt"
	"time"

	"github.com/hupe1980/minsketch/minhash"
)

// CurrentVersion is the version of the catalog format.
const CurrentVersion = 1

// Catalog lists the shards produced by a run.
type Catalog struct {
	Version    int
	Generation uint64
	CreatedAt  time.Time
	Shards     []Shard
}

// Shard describes a single sketch file.
type Shard struct {
	Name       string
	NumPerm    int
	Seed       int64
	SeedPolicy minhash.SeedPolicyKind
	Family     minhash.HashFamily
	Records    int64
	Bytes      int64 // uncompressed, header included
}

// New creates an empty catalog.
func New(shards ...Shard) *Catalog {
	return &Catalog{
		Version:   CurrentVersion,
		CreatedAt: time.Now(),
		Shards:    shards,
	}
}

// Find returns the shard with the given name.
func (c *Catalog) Find(name string) (Shard, bool) {
	for _, s := range c.Shards {
		if s.Name == name {
			return s, true
		}
	}
	return Shard{}, false
}

// Records returns the total record count.
func (c *Catalog) Records() int64 {
	var n int64
	for _, s := range c.Shards {
		n += s.Records
	}
	return n
}

// Validate reports whether signatures from all shards are comparable.
func (c *Catalog) Validate() error {
	if len(c.Shards) == 0 {
		return nil
	}
	first := c.Shards[0]
	for _, s := range c.Shards[1:] {
		if s.NumPerm != first.NumPerm || s.Seed != first.Seed || s.Family != first.Family {
			return fmt.Errorf("%w: %s (numPerm=%d seed=%d family=%s) vs %s (numPerm=%d seed=%d family=%s)",
				ErrMixedParameters,
				first.Name, first.NumPerm, first.Seed, first.Family,
				s.Name, s.NumPerm, s.Seed, s.Family)
		}
	}
	return nil
}
