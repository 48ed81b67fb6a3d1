package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset/blobstore"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "a/b", NewStore(nil, "bucket", "").key("a/b"))
	assert.Equal(t, "root/a/b", NewStore(nil, "bucket", "/root/").key("a/b"))
}

func TestCheckName(t *testing.T) {
	for _, name := range []string{"CURRENT", "snapshots/a.snap", "maps/s1/z.nii.gz"} {
		assert.NoError(t, checkName(name), name)
	}
	for _, name := range []string{"", "/abs", "../escape", "a/../../b", "a//b"} {
		assert.ErrorIs(t, checkName(name), blobstore.ErrInvalidName, name)
	}
}

func TestTranslateError(t *testing.T) {
	err := translateError(minio.ErrorResponse{Code: "NoSuchKey"})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	err = translateError(minio.ErrorResponse{Code: "AccessDenied"})
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)
}

// TestMinioStore_Integration requires a running MinIO instance.
// Set STUDYSET_MINIO_ENDPOINT (e.g. localhost:9000) to enable it.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("STUDYSET_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("STUDYSET_MINIO_ENDPOINT not set")
	}
	bucket := "test-studyset"

	store, err := Dial(endpoint, "minioadmin", "minioadmin", false, bucket, "test-prefix/")
	require.NoError(t, err)

	ctx := context.Background()

	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.txt", data))

	blob, err := store.Open(ctx, "test.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.txt")

	require.NoError(t, store.Delete(ctx, "test.txt"))
	require.NoError(t, store.Delete(ctx, "test.txt"))

	_, err = store.Open(ctx, "test.txt")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
