package blobstore

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-memory BlobStore implementation for testing.
// It stores blobs in memory without any filesystem dependency.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Stored slices are never mutated in place, so sharing is safe.
	return &memoryBlob{data: data}, nil
}

// Put writes a blob atomically.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	m.blobs[name] = append([]byte{}, data...)
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// memoryBlob implements Blob for in-memory data.
type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return readAt(b.data, p, off)
}

func (b *memoryBlob) Close() error {
	return nil
}

func (b *memoryBlob) Size() int64 {
	return int64(len(b.data))
}

func (b *memoryBlob) Bytes() ([]byte, error) {
	return b.data, nil
}

func (b *memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return readRange(b.data, off, length), nil
}

func readAt(data, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func readRange(data []byte, off, length int64) io.ReadCloser {
	if off < 0 || off >= int64(len(data)) || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil))
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(bytes.NewReader(data[off:end]))
}
