package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that escape the store root.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// BlobStore stores immutable, named blobs: dataset snapshots, the catalog
// pointer and statistical map files.
//
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any existing blob.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes at off with io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over [off, off+length), clipped to the blob.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over the whole blob.
// The caller still owns (and must close) b.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	if b.Size() == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	return b.ReadRange(ctx, 0, b.Size())
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// ReadAll opens name and returns its full contents.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	r, err := NewReader(ctx, b)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data := make([]byte, 0, b.Size())
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return data, nil
}

// Exists reports whether name exists in s.
func Exists(ctx context.Context, s BlobStore, name string) (bool, error) {
	b, err := s.Open(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = b.Close()
	return true, nil
}
