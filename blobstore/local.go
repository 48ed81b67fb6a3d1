package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/studyset/internal/fs"
	"github.com/hupe1980/studyset/internal/mmap"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem overrides the filesystem used for writes and listing.
// Reads always use mmap against the real filesystem.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		s.fsys = fsys
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fsys: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) (string, error) {
	p := filepath.FromSlash(name)
	if !filepath.IsLocal(p) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.root, p), nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Put writes a blob atomically via a temporary file and rename.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fsys.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return fs.WriteFileAtomic(s.fsys, p, 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Delete removes a blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fsys.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blobs matching the prefix. Temporary files left by an
// interrupted Put are skipped.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.walk(ctx, "", prefix, &names); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *LocalStore) walk(ctx context.Context, dir, prefix string, names *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := s.fsys.ReadDir(filepath.Join(s.root, filepath.FromSlash(dir)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := path.Join(dir, e.Name())
		if e.IsDir() {
			// Only descend where the prefix can still match.
			if strings.HasPrefix(name+"/", prefix) || strings.HasPrefix(prefix, name+"/") {
				if err := s.walk(ctx, name, prefix, names); err != nil {
					return err
				}
			}
			continue
		}
		if strings.HasPrefix(name, prefix) {
			*names = append(*names, name)
		}
	}
	return nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, io.EOF
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return readRange(b.m.Bytes(), off, length), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}
