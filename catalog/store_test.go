package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/minsketch/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	store := NewStore(mem)

	// 1. Load on empty store
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// 2. First commit is generation 1
	c := New(Shard{Name: "hashes.0.dat", NumPerm: 64, Seed: 1, Records: 3, Bytes: 100})
	name1, err := store.Commit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Generation)
	assert.Equal(t, name1, string(mem.Bytes(CurrentFileName)))

	// 3. Second commit increments
	c2 := New(
		Shard{Name: "hashes.0.dat", NumPerm: 64, Seed: 1, Records: 3, Bytes: 100},
		Shard{Name: "hashes.1.dat", NumPerm: 64, Seed: 1, Records: 4, Bytes: 120},
	)
	_, err = store.Commit(ctx, c2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), c2.Generation)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.Generation)
	assert.Len(t, loaded.Shards, 2)

	// 4. Older generations stay readable
	old, err := store.LoadGeneration(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, old.Shards, 1)

	_, err = store.LoadGeneration(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	// 5. List skips corrupted blobs
	require.NoError(t, mem.Put(ctx, CatalogPrefix+"000003-bad.bin", []byte("garbage")))
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].Generation)
	assert.Equal(t, uint64(2), all[1].Generation)

	// 6. Delete a generation
	require.NoError(t, store.DeleteGeneration(ctx, 1))
	_, err = store.LoadGeneration(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CommitRejectsMixedShards(t *testing.T) {
	store := NewStore(blobstore.NewMemoryStore())
	c := New(
		Shard{Name: "a", NumPerm: 64, Seed: 1},
		Shard{Name: "b", NumPerm: 128, Seed: 1},
	)
	_, err := store.Commit(context.Background(), c)
	assert.ErrorIs(t, err, ErrMixedParameters)
}

// rejectCurrent fails every write of CURRENT, like a lost commit race.
type rejectCurrent struct {
	*blobstore.MemoryStore
}

var errLostRace = errors.New("lost race")

func (r rejectCurrent) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentFileName {
		return errLostRace
	}
	return r.MemoryStore.Put(ctx, name, data)
}

func TestStore_CommitCleansUpOnFailedPointerUpdate(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	store := NewStore(rejectCurrent{mem})

	_, err := store.Commit(ctx, New(Shard{Name: "a", NumPerm: 8}))
	assert.ErrorIs(t, err, errLostRace)

	names, err := mem.List(ctx, CatalogPrefix)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_LoadCorruptCurrent(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, CurrentFileName, []byte("CATALOG-000001-x.bin")))
	require.NoError(t, mem.Put(ctx, "CATALOG-000001-x.bin", []byte("not a catalog at all")))

	_, err := NewStore(mem).Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}
