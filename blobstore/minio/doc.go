// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works against MinIO and other S3-compatible systems such as Ceph,
// SeaweedFS and Garage, without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minioblob.Dial("localhost:9000", "minioadmin", "minioadmin", false,
//	    "my-bucket", "studysets/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ds, err := studyset.LoadLatest(ctx, catalog.New(store))
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
