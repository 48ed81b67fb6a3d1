package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/studyset/internal/cache"
)

// DefaultBlockSize is the cache block size used when none is given.
const DefaultBlockSize = 64 * 1024

// CachingStore wraps a BlobStore and caches blob reads in fixed-size blocks.
//
// Blobs are assumed immutable. Put and Delete through the CachingStore drop
// the blob's cached blocks; changes made behind its back are not seen.
// Names that change in place, such as a catalog pointer, should be excluded
// with WithCacheFilter.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
	cacheable func(name string) bool
}

var _ BlobStore = (*CachingStore)(nil)

// CachingOption configures a CachingStore.
type CachingOption func(*CachingStore)

// WithBlockSize sets the cache block size in bytes.
func WithBlockSize(size int64) CachingOption {
	return func(s *CachingStore) {
		if size > 0 {
			s.blockSize = size
		}
	}
}

// WithCacheFilter restricts caching to names for which fn returns true.
func WithCacheFilter(fn func(name string) bool) CachingOption {
	return func(s *CachingStore) {
		s.cacheable = fn
	}
}

// NewCachingStore creates a CachingStore holding up to capacity bytes of
// blocks in memory.
func NewCachingStore(inner BlobStore, capacity int64, opts ...CachingOption) *CachingStore {
	s := &CachingStore{
		inner:     inner,
		cache:     cache.NewShardedLRUBlockCache(capacity),
		blockSize: DefaultBlockSize,
		cacheable: func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

// Open opens a blob for reading.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil || !s.cacheable(name) {
		return b, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Put writes a blob and drops its cached blocks.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob and drops its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List returns the names of all blobs with the given prefix.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Name == name
	})
}

// cachingBlob wraps a Blob and uses the block cache for reads.
type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Name: b.name, Block: uint64(blk)}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	end := min(off+int64(len(p)), size)
	startBlock := off / b.blockSize
	endBlock := (end - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	n := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize
		data, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return n, err
		}

		lo := max(blkStart, off)
		hi := min(blkStart+int64(len(data)), end)
		if hi <= lo {
			break
		}
		n += copy(p[lo-off:hi-off], data[lo-blkStart:hi-blkStart])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fillCache loads the missing blocks in [startBlock, endBlock], fetching
// each contiguous run of missing blocks with a single backend read.
func (b *cachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	type run struct{ start, count int64 }
	var missing []run

	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if len(missing) > 0 {
			last := &missing[len(missing)-1]
			if last.start+last.count == blk {
				last.count++
				continue
			}
		}
		missing = append(missing, run{blk, 1})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	size := b.Size()
	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			byteSize := min(r.count*b.blockSize, size-byteStart)
			if byteSize <= 0 {
				return nil
			}

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := range r.count {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so a cached block does not pin the whole run.
				b.cache.Set(gctx, b.key(r.start+i), append([]byte(nil), buf[lo:hi]...))
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchBlock returns a block from the cache, reading it through when it
// was evicted since fillCache.
func (b *cachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.cache.Set(ctx, b.key(blk), data)
	}
	return data, nil
}

// ReadRange returns a reader over [off, off+length) served from the cache.
func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	limit := min(off+length, b.Size())
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

// contextSectionReader adapts a Blob range to io.Reader.
type contextSectionReader struct {
	blob  Blob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
