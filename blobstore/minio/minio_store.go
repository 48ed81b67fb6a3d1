package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/studyset/blobstore"
)

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a new MinIO blob store.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "studysets/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(rootPrefix, "/"),
	}
}

// Dial creates a client for endpoint with static credentials and wraps it in a Store.
func Dial(endpoint, accessKey, secretKey string, secure bool, bucket, rootPrefix string) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}
	return NewStore(client, bucket, rootPrefix), nil
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func checkName(name string) error {
	if !fs.ValidPath(name) || name == "." {
		return fmt.Errorf("%w: %q", blobstore.ErrInvalidName, name)
	}
	return nil
}

func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return blobstore.ErrNotFound
	}
	return err
}

// Open opens an existing blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}

	return &minioBlob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// Put writes a blob atomically.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !errors.Is(translateError(err), blobstore.ErrNotFound) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := prefix
	if s.prefix != "" {
		fullPrefix = s.prefix + "/" + prefix
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names, nil
}

// minioBlob implements blobstore.Blob for MinIO.
type minioBlob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *minioBlob) Size() int64 {
	return b.size
}

func (b *minioBlob) get(ctx context.Context, off, length int64) (*minio.Object, int64, error) {
	end := min(off+length, b.size) - 1
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return nil, 0, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, 0, translateError(err)
	}
	return obj, end - off + 1, nil
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("minio: negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= b.size {
		return 0, io.EOF
	}

	obj, n, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	read, err := io.ReadFull(obj, p[:n])
	if err != nil {
		return read, translateError(err)
	}
	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

func (b *minioBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("minio: invalid range [%d, +%d)", off, length)
	}
	if length == 0 || off >= b.size {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	obj, _, err := b.get(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (b *minioBlob) Close() error {
	return nil
}
