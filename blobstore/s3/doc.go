// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("studysets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	ds, err := studyset.LoadSnapshotFrom(ctx, store, "snapshots/neurovault.snap.zst")
//
// # Features
//
//   - Range reads for partial fetches of large statistical maps
//   - Multipart uploads through the SDK upload manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - DDBCommitStore: DynamoDB conditional writes for the catalog pointer
package s3
