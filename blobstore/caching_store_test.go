package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts backend reads.
type countingStore struct {
	BlobStore
	reads atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, reads: &s.reads}, nil
}

type countingBlob struct {
	Blob
	reads *atomic.Int64
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.reads.Add(1)
	return b.Blob.ReadAt(ctx, p, off)
}

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCachingStoreReadAt(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	data := testPayload(1000)
	require.NoError(t, inner.Put(ctx, "img/s1_z.nii", data))

	s := NewCachingStore(inner, 1<<20, WithBlockSize(64))
	b, err := s.Open(ctx, "img/s1_z.nii")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(1000), b.Size())

	p := make([]byte, 200)
	n, err := b.ReadAt(ctx, p, 100)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, data[100:300], p)
	assert.Equal(t, int64(1), inner.reads.Load())

	// Served from cache.
	n, err = b.ReadAt(ctx, p[:50], 130)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	assert.Equal(t, data[130:180], p[:50])
	assert.Equal(t, int64(1), inner.reads.Load())

	// Short read at the tail.
	n, err = b.ReadAt(ctx, p, 900)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[900:], p[:100])

	_, err = b.ReadAt(ctx, p, 1000)
	assert.ErrorIs(t, err, io.EOF)

	hits, misses := s.Stats()
	assert.Positive(t, hits)
	assert.Positive(t, misses)
}

func TestCachingStoreReadRange(t *testing.T) {
	ctx := context.Background()
	data := testPayload(5000)
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "snapshots/a.snap", data))

	s := NewCachingStore(inner, 1<<20, WithBlockSize(128))
	b, err := s.Open(ctx, "snapshots/a.snap")
	require.NoError(t, err)
	defer b.Close()

	r, err := NewReader(ctx, b)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))

	r, err = b.ReadRange(ctx, 4900, 500)
	require.NoError(t, err)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data[4900:], got)
}

func TestCachingStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	s := NewCachingStore(NewMemoryStore(), 1<<20)
	require.NoError(t, s.Put(ctx, "a", []byte("first")))

	got, err := ReadAll(ctx, s, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	require.NoError(t, s.Put(ctx, "a", []byte("other")))
	got, err = ReadAll(ctx, s, "a")
	require.NoError(t, err)
	assert.Equal(t, "other", string(got))

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCachingStoreFilter(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := NewCachingStore(inner, 1<<20, WithCacheFilter(func(name string) bool { return name != "CURRENT" }))
	require.NoError(t, s.Put(ctx, "CURRENT", []byte("snapshots/a.snap")))

	got, err := ReadAll(ctx, s, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "snapshots/a.snap", string(got))

	// Updated behind the cache's back.
	require.NoError(t, inner.Put(ctx, "CURRENT", []byte("snapshots/b.snap")))
	got, err = ReadAll(ctx, s, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "snapshots/b.snap", string(got))

	hits, misses := s.Stats()
	assert.Zero(t, hits+misses)
}
