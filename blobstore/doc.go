// Package blobstore provides storage abstraction for dataset snapshots and
// statistical map files.
//
// BlobStore is the interface for reading and writing immutable, named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: In-memory, for tests and ephemeral pipelines
//   - LocalStore: Local filesystem with mmap reads and atomic writes
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB conditional writes for the catalog pointer
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blob names use forward slashes regardless of platform.
package blobstore
