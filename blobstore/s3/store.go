package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/studyset/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ blobstore.BlobStore = (*Store)(nil)

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := applyOptions(opts)

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		so.UsePathStyle = o.pathStyle
	})
	return NewStore(client, bucket, opts...), nil
}

// NewStore creates a Store from an existing client.
func NewStore(client Client, bucket string, opts ...Option) *Store {
	o := applyOptions(opts)
	return &Store{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = o.partSize
			u.Concurrency = o.concurrency
		}),
		bucket: bucket,
		prefix: strings.Trim(o.prefix, "/"),
	}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Store) name(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

// Open opens a blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	// Get metadata to verify existence and size
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads a blob. Large blobs are split into a multipart upload; S3
// makes the object visible only once the upload completes.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// Delete removes a blob. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			names = append(names, s.name(aws.ToString(obj.Key)))
		}
	}
	slices.Sort(names)
	return names, nil
}

func translateError(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	return err
}

// s3Blob implements blobstore.Blob with ranged GETs.
type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Close() error {
	return nil
}

func (b *s3Blob) Size() int64 {
	return b.size
}

// ReadAt reads len(p) bytes starting at offset off.
func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	body, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return n, io.EOF
	}
	return n, err
}

// ReadRange returns a reader for a range of bytes.
func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.get(ctx, off, length)
}

func (b *s3Blob) get(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := min(off+length, b.size) - 1
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return resp.Body, nil
}
