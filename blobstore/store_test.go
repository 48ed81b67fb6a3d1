package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset/internal/fs"
)

// storeContract exercises behaviour every BlobStore must share.
func storeContract(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := Exists(ctx, store, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	data := []byte("hello world, this is a test blob")
	require.NoError(t, store.Put(ctx, "snapshots/a.snap", data))
	require.NoError(t, store.Put(ctx, "snapshots/b.snap.zst", []byte("b")))
	require.NoError(t, store.Put(ctx, "images/s1_z.nii", []byte("nifti")))
	require.NoError(t, store.Put(ctx, "CURRENT", []byte("snapshots/a.snap")))
	require.NoError(t, store.Put(ctx, "empty", nil))

	blob, err := store.Open(ctx, "snapshots/a.snap")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	n, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data))-3)
	assert.Equal(t, 3, n)
	assert.Equal(t, io.EOF, err)

	rc, err := blob.ReadRange(ctx, 0, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(got))
	require.NoError(t, blob.Close())

	all, err := ReadAll(ctx, store, "snapshots/a.snap")
	require.NoError(t, err)
	assert.Equal(t, data, all)

	empty, err := ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, empty)

	names, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/a.snap", "snapshots/b.snap.zst"}, names)

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CURRENT", "empty", "images/s1_z.nii", "snapshots/a.snap", "snapshots/b.snap.zst"}, names)

	// Overwrite replaces the content.
	require.NoError(t, store.Put(ctx, "CURRENT", []byte("snapshots/b.snap.zst")))
	cur, err := ReadAll(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "snapshots/b.snap.zst", string(cur))

	require.NoError(t, store.Delete(ctx, "snapshots/a.snap"))
	require.NoError(t, store.Delete(ctx, "snapshots/a.snap"))
	ok, err = Exists(ctx, store, "snapshots/a.snap")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	storeContract(t, NewLocalStore(t.TempDir()))
}

func TestMemoryStore_CopiesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'x'

	got, err := ReadAll(ctx, store, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.ErrorIs(t, store.Put(ctx, "k", nil), context.Canceled)
	_, err := store.Open(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	assert.ErrorIs(t, store.Put(ctx, "../outside", []byte("x")), ErrInvalidName)
	_, err := store.Open(ctx, "/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestLocalStore_PutIsAtomic(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	ffs := fs.NewFaultyFS(nil)
	store := NewLocalStore(root, WithFileSystem(ffs))
	require.NoError(t, store.Put(ctx, "CURRENT", []byte("old")))

	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	err := store.Put(ctx, "CURRENT", []byte("new"))
	require.ErrorIs(t, err, fs.ErrInjected)

	got, err := ReadAll(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CURRENT"}, names)
	assert.Equal(t, root, store.Root())
	assert.FileExists(t, filepath.Join(root, "CURRENT"))
}
