package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "shards")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "hashes.1.dat")
	f, err := Create(lfs, path)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	info, err := lfs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	r, err := Open(lfs, path)
	require.NoError(t, err)
	assert.NoError(t, AdviseSequential(r))
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, r.Close())

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	renamed := filepath.Join(dir, "hashes.2.dat")
	require.NoError(t, lfs.Rename(path, renamed))
	require.NoError(t, lfs.Remove(renamed))

	_, err = lfs.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("open", Fault{FailOnOpen: true, FailAfterBytes: -1})
	ffs.AddRule("write", Fault{FailAfterBytes: 4})
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnClose: true})

	_, err := Create(ffs, filepath.Join(tmp, "open.dat"))
	assert.ErrorIs(t, err, ErrInjected)

	w, err := Create(ffs, filepath.Join(tmp, "write.dat"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = w.Write([]byte("e"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, w.Close())

	s, err := Create(ffs, filepath.Join(tmp, "sync.dat"))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Sync(), ErrInjected)
	assert.ErrorIs(t, s.Close(), ErrInjected)

	// Unmatched files pass through.
	p, err := Create(ffs, filepath.Join(tmp, "plain.dat"))
	require.NoError(t, err)
	_, err = p.Write([]byte("anything"))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestFaultyFS_Read(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "read.dat")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	ffs := NewFaultyFS(nil)
	ffs.AddRule("read", Fault{FailOnRead: true, FailAfterBytes: -1})

	f, err := Open(ffs, path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrInjected)
}
