package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset/blobstore"
)

func TestNewName(t *testing.T) {
	name, err := NewName(".snap.zst")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, SnapshotPrefix))
	assert.True(t, strings.HasSuffix(name, ".snap.zst"))

	other, err := NewName(".snap.zst")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)

	_, err = NewName("")
	require.NoError(t, err)

	for _, ext := range []string{"zst", "./x", ".a/b"} {
		_, err := NewName(ext)
		assert.Error(t, err, ext)
	}
}

func TestCatalog_Empty(t *testing.T) {
	c := New(blobstore.NewMemoryStore())

	_, err := c.Latest(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)

	_, _, err = c.Resolve(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)

	names, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCatalog_PublishResolve(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name  string
		store blobstore.BlobStore
	}{
		{"memory", blobstore.NewMemoryStore()},
		{"local", blobstore.NewLocalStore(t.TempDir())},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.store)

			first, err := c.Publish(ctx, ".snap", []byte("v1"))
			require.NoError(t, err)
			second, err := c.Publish(ctx, ".snap.gz", []byte("v2"))
			require.NoError(t, err)

			latest, err := c.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, second, latest)

			b, name, err := c.Resolve(ctx)
			require.NoError(t, err)
			defer b.Close()
			assert.Equal(t, second, name)
			assert.Equal(t, int64(2), b.Size())

			names, err := c.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{first, second}, names)

			deleted, err := c.Prune(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{first}, deleted)

			names, err = c.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{second}, names)
		})
	}
}

func TestCatalog_InvalidPointer(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	for _, content := range []string{"", "snapshots/", "other/x.snap"} {
		require.NoError(t, store.Put(ctx, CurrentName, []byte(content)))
		_, err := c.Latest(ctx)
		assert.ErrorIs(t, err, ErrInvalidPointer, content)
	}

	require.NoError(t, store.Put(ctx, CurrentName, []byte("snapshots/a.snap\n")))
	name, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/a.snap", name)

	_, _, err = c.Resolve(ctx)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

// failingStore fails every Put whose name matches failName.
type failingStore struct {
	blobstore.BlobStore
	failName string
}

var errPut = errors.New("put failed")

func (s *failingStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.HasPrefix(name, s.failName) {
		return errPut
	}
	return s.BlobStore.Put(ctx, name, data)
}

func TestCatalog_PublishFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot put fails", func(t *testing.T) {
		mem := blobstore.NewMemoryStore()
		c := New(mem)
		prev, err := c.Publish(ctx, ".snap", []byte("v1"))
		require.NoError(t, err)

		c = New(&failingStore{BlobStore: mem, failName: SnapshotPrefix})
		_, err = c.Publish(ctx, ".snap", []byte("v2"))
		require.ErrorIs(t, err, errPut)

		latest, err := c.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, prev, latest)
	})

	t.Run("pointer put fails", func(t *testing.T) {
		mem := blobstore.NewMemoryStore()
		c := New(&failingStore{BlobStore: mem, failName: CurrentName})
		_, err := c.Publish(ctx, ".snap", []byte("v1"))
		require.ErrorIs(t, err, errPut)

		names, err := c.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}
