// Package catalog locates the latest published dataset snapshot in a blob store.
//
// Snapshots are immutable blobs stored under "snapshots/<uuid><ext>". The blob
// CURRENT holds the name of the most recently published one. Publishing writes
// the snapshot first and only then moves the pointer, so readers never observe
// a CURRENT that names a missing or partial snapshot.
//
// On S3, wrap the store in s3.DDBCommitStore to make the pointer update a
// DynamoDB conditional write.
package catalog
