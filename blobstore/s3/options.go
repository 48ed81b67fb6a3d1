package s3

import (
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

type options struct {
	prefix      string
	region      string
	endpoint    string
	pathStyle   bool
	partSize    int64
	concurrency int
}

// Option configures a Store.
type Option func(*options)

// WithPrefix prepends prefix to every key (e.g. "studysets/").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithRegion sets the AWS region used by New.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint points New at an S3-compatible endpoint and enables
// path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.pathStyle = true
	}
}

// WithPartSize sets the multipart upload part size in bytes.
// Default: 8MB (larger than SDK default of 5MB for better throughput)
func WithPartSize(size int64) Option {
	return func(o *options) {
		if size >= manager.MinUploadPartSize {
			o.partSize = size
		}
	}
}

// WithConcurrency sets the number of concurrent part uploads.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		partSize:    8 * 1024 * 1024,
		concurrency: manager.DefaultUploadConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
