package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/studyset/blobstore"
)

const (
	// CurrentName is the blob holding the name of the latest snapshot.
	CurrentName = "CURRENT"
	// SnapshotPrefix is the blob prefix under which snapshots are published.
	SnapshotPrefix = "snapshots/"
)

var (
	// ErrNoSnapshot is returned when nothing has been published yet.
	ErrNoSnapshot = errors.New("catalog: no snapshot published")
	// ErrInvalidPointer is returned when CURRENT does not name a snapshot.
	ErrInvalidPointer = errors.New("catalog: invalid CURRENT pointer")
)

// Catalog manages the CURRENT pointer over a blob store.
type Catalog struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// New creates a catalog over store.
func New(store blobstore.BlobStore) *Catalog {
	return &Catalog{store: store}
}

// Store returns the underlying blob store.
func (c *Catalog) Store() blobstore.BlobStore {
	return c.store
}

// NewName returns a fresh snapshot name with the given extension,
// e.g. ".snap.zst".
func NewName(ext string) (string, error) {
	if ext != "" && (!strings.HasPrefix(ext, ".") || strings.Contains(ext, "/")) {
		return "", fmt.Errorf("catalog: invalid extension %q", ext)
	}
	return SnapshotPrefix + uuid.NewString() + ext, nil
}

// Publish stores data as a new snapshot and points CURRENT at it.
// It returns the snapshot's blob name.
func (c *Catalog) Publish(ctx context.Context, ext string, data []byte) (string, error) {
	name, err := NewName(ext)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("catalog: put %s: %w", name, err)
	}
	if err := c.store.Put(ctx, CurrentName, []byte(name)); err != nil {
		// The snapshot is unreferenced; drop it so it does not accumulate.
		_ = c.store.Delete(context.WithoutCancel(ctx), name)
		return "", fmt.Errorf("catalog: update %s: %w", CurrentName, err)
	}
	return name, nil
}

// Latest returns the name of the most recently published snapshot.
func (c *Catalog) Latest(ctx context.Context) (string, error) {
	data, err := blobstore.ReadAll(ctx, c.store, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("catalog: read %s: %w", CurrentName, err)
	}

	name := strings.TrimSpace(string(data))
	if !strings.HasPrefix(name, SnapshotPrefix) || len(name) == len(SnapshotPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPointer, name)
	}
	return name, nil
}

// Resolve opens the latest snapshot. The caller must close the returned blob.
func (c *Catalog) Resolve(ctx context.Context) (blobstore.Blob, string, error) {
	name, err := c.Latest(ctx)
	if err != nil {
		return nil, "", err
	}
	b, err := c.store.Open(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: open %s: %w", name, err)
	}
	return b, name, nil
}

// List returns the names of all published snapshots, sorted.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	names, err := c.store.List(ctx, SnapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return names, nil
}

// Prune deletes every published snapshot except the one CURRENT names.
// It returns the deleted names.
func (c *Catalog) Prune(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	names, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, name := range names {
		if name == current {
			continue
		}
		if err := c.store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("catalog: delete %s: %w", name, err)
		}
		deleted = append(deleted, name)
	}
	slices.Sort(deleted)
	return deleted, nil
}
