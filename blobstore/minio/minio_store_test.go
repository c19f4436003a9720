package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/minsketch/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
}

func TestWritableBlob_Abort(t *testing.T) {
	pr, pw := io.Pipe()
	b := &minioWritableBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := io.ReadAll(pr)
		b.done <- err
	}()

	var _ blobstore.Aborter = b
	require.NoError(t, b.Abort())
	require.NoError(t, b.Abort())
	assert.Error(t, b.Close())
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "run-42/")
	assert.Equal(t, "run-42/hashes.1.dat", s.key("hashes.1.dat"))
	assert.Equal(t, "run-42", s.key(""))
}

// TestMinioStore_Integration requires a MinIO instance at
// MINSKETCH_MINIO_ENDPOINT (credentials minioadmin/minioadmin).
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINSKETCH_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINSKETCH_MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := Dial(ctx, Endpoint{
		Address:   endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, "test-minsketch", "test-prefix/")
	require.NoError(t, err)

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.dat", data))

	blob, err := store.Open(ctx, "test.dat")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.dat")

	require.NoError(t, store.Delete(ctx, "test.dat"))
	_, err = store.Open(ctx, "test.dat")
	require.Error(t, err)

	wb, err := store.Create(ctx, "stream.dat")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob, err = store.Open(ctx, "stream.dat")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob.Size())
	require.NoError(t, blob.Close())

	aborted, err := store.Create(ctx, "aborted.dat")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, aborted.(blobstore.Aborter).Abort())
	_, err = store.Open(ctx, "aborted.dat")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_ = store.Delete(ctx, "stream.dat")
}
