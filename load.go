package studyset

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/hupe1980/studyset/internal/fs"
	"github.com/hupe1980/studyset/snapshot"
)

// Load reads a dataset from path.
//
// Compression is chosen by the path suffix (see snapshot.CompressionForPath).
// The decompressed content is sniffed: a snapshot header means a binary
// snapshot, anything else is parsed as the structured JSON format
//
//	{"<study id>": {"metadata": {...}, "images": {"z": "path"}, "coordinates": [[x, y, z], ...]}}
//
// Invalid JSON fails with *FormatError, malformed records with *SchemaError.
// Missing "metadata", "images" or "coordinates" keys default to empty unless
// WithStrictSchema is set. Top-level keys starting with "_" are ignored.
func Load(path string, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)
	start := time.Now()
	d, err := loadFile(o, path, false)
	recordLoad(o, path, d, start, err)
	return d, err
}

// LoadSnapshot reads a dataset written by SaveSnapshot.
//
// Corrupt, truncated or unreadable snapshots fail with *FormatError; an
// unsupported format version fails with a *FormatError wrapping
// snapshot.ErrUnsupportedVersion. A valid snapshot that does not hold a
// dataset fails with *TypeMismatchError.
func LoadSnapshot(path string, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)
	start := time.Now()
	d, err := loadFile(o, path, true)
	recordLoad(o, path, d, start, err)
	return d, err
}

func recordLoad(o options, path string, d *Dataset, start time.Time, err error) {
	n := 0
	if d != nil {
		n = d.Len()
	}
	elapsed := time.Since(start)
	o.metricsCollector.RecordLoad(n, elapsed, err)
	o.logger.LogLoad(context.Background(), path, n, elapsed, err)
}

func loadFile(o options, path string, snapshotOnly bool) (*Dataset, error) {
	f, err := fs.Open(o.fs, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeStream(o, path, f, snapshotOnly)
}

// decodeStream decompresses r according to name and decodes a dataset.
func decodeStream(o options, name string, r io.Reader, snapshotOnly bool) (*Dataset, error) {
	cr, err := snapshot.NewReader(r, snapshot.CompressionForPath(name))
	if err != nil {
		return nil, newFormatError(name, err)
	}
	defer cr.Close()

	br := bufio.NewReader(cr)
	prefix, err := br.Peek(len(snapshot.Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, newFormatError(name, err)
	}

	if snapshotOnly || snapshot.IsSnapshot(prefix) {
		return decodeSnapshot(o, name, br)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, newFormatError(name, err)
	}
	return decodeJSON(o, name, data)
}

func decodeSnapshot(o options, name string, r io.Reader) (*Dataset, error) {
	obj, err := snapshot.Decode(r)
	if err != nil {
		return nil, newFormatError(name, err)
	}
	snap, ok := obj.(*snapshot.Dataset)
	if !ok {
		return nil, &TypeMismatchError{Path: name, Kind: obj.Kind()}
	}
	return fromSnapshot(o, name, snap)
}

// withPath attributes a validation error raised while loading name.
func withPath(name string, err error) error {
	var se *SchemaError
	if errors.As(err, &se) {
		se.Path = name
		return se
	}
	if errors.Is(err, ErrDuplicateStudy) {
		return newFormatError(name, err)
	}
	return err
}
