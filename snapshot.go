package studyset

import (
	"context"
	"io"
	"time"

	"github.com/hupe1980/studyset/internal/fs"
	"github.com/hupe1980/studyset/snapshot"
)

// SaveSnapshot writes the dataset to path in the binary snapshot format.
//
// The stream is compressed according to the path suffix: ".zst" (zstd),
// ".lz4" (LZ4) or any other name ending in "z" such as ".gz" (gzip);
// anything else is written raw. The file is written to a temporary file in
// the same directory, synced and renamed into place, so a failed save never
// replaces or truncates an existing file at path.
func (d *Dataset) SaveSnapshot(path string) error {
	start := time.Now()
	var cw countingWriter
	err := fs.WriteFileAtomic(d.opts.fs, path, 0o644, func(w io.Writer) error {
		cw.w = w
		return snapshot.Write(&cw, snapshot.CompressionForPath(path), d.toSnapshot())
	})
	d.recordSave(path, cw.n, start, err)
	return err
}

func (d *Dataset) recordSave(name string, n int64, start time.Time, err error) {
	d.opts.metricsCollector.RecordSave(n, time.Since(start), err)
	d.opts.logger.LogSnapshot(context.Background(), name, d.Len(), err)
}

// toSnapshot returns the snapshot form of d with studies sorted by ID.
// Studies are shared, not copied; the snapshot must not outlive a mutation.
func (d *Dataset) toSnapshot() *snapshot.Dataset {
	snap := &snapshot.Dataset{
		Space:   d.space,
		Studies: make([]*Study, 0, len(d.studies)),
	}
	for _, id := range d.IDs() {
		snap.Studies = append(snap.Studies, d.studies[id])
	}
	return snap
}

func fromSnapshot(o options, name string, snap *snapshot.Dataset) (*Dataset, error) {
	d := newDataset(o)
	d.space = snap.Space
	if err := d.add(snap.Studies); err != nil {
		return nil, withPath(name, err)
	}
	return d, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
