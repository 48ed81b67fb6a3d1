package studyset

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/studyset/blobstore"
	"github.com/hupe1980/studyset/catalog"
	"github.com/hupe1980/studyset/snapshot"
)

// encodeSnapshot encodes the dataset, compressed according to name's suffix.
func (d *Dataset) encodeSnapshot(name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := snapshot.Write(&buf, snapshot.CompressionForPath(name), d.toSnapshot()); err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// SaveSnapshotTo writes the dataset as a snapshot blob. Compression follows
// the name suffix as in SaveSnapshot.
func (d *Dataset) SaveSnapshotTo(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	data, err := d.encodeSnapshot(name)
	if err == nil {
		err = store.Put(ctx, name, data)
	}
	d.recordSave(name, int64(len(data)), start, err)
	return err
}

// Publish writes the dataset as a new snapshot in cat and points the
// catalog's CURRENT at it. ext selects the compression, e.g. ".snap.zst".
// It returns the snapshot's blob name.
func (d *Dataset) Publish(ctx context.Context, cat *catalog.Catalog, ext string) (string, error) {
	start := time.Now()
	data, err := d.encodeSnapshot(ext)
	var name string
	if err == nil {
		name, err = cat.Publish(ctx, ext, data)
	}
	d.recordSave(name, int64(len(data)), start, err)
	return name, err
}

// LoadSnapshotFrom reads a snapshot blob. Errors are as for LoadSnapshot,
// with the blob name in place of the path.
func LoadSnapshotFrom(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)
	start := time.Now()
	d, err := loadBlob(ctx, o, store, name)
	recordLoad(o, name, d, start, err)
	return d, err
}

// LoadLatest reads the snapshot that cat's CURRENT points at.
func LoadLatest(ctx context.Context, cat *catalog.Catalog, opts ...Option) (*Dataset, error) {
	name, err := cat.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return LoadSnapshotFrom(ctx, cat.Store(), name, opts...)
}

func loadBlob(ctx context.Context, o options, store blobstore.BlobStore, name string) (*Dataset, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	r, err := blobstore.NewReader(ctx, b)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return decodeStream(o, name, r, true)
}
