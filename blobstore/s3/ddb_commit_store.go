package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/studyset/blobstore"
)

// CurrentName is the blob name whose writes are routed through DynamoDB.
const CurrentName = "CURRENT"

// DDBCommitStore implements blobstore.BlobStore backed by an object store with
// DynamoDB for atomic catalog commits. This enables safe concurrent publishers.
//
// Every blob except CURRENT is delegated to the underlying store. Writes to
// CURRENT become a new, monotonically numbered item in DynamoDB using a
// conditional put, giving the compare-and-swap semantics that S3 lacks;
// reads of CURRENT return the path stored in the latest item.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 prefix/path
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name studyset-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	store     blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string // used as partition key
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore creates a new commit store over store.
// The baseURI should be "s3://bucket/prefix" format used as partition key.
func NewDDBCommitStore(store blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open opens a blob for reading.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == CurrentName {
		version, snapshotPath, err := s.getLatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &virtualCurrentBlob{content: []byte(snapshotPath)}, nil
	}
	return s.store.Open(ctx, name)
}

// Put writes a blob. For CURRENT, uses DynamoDB conditional write.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commitVersion(ctx, string(data))
	}
	return s.store.Put(ctx, name, data)
}

// Delete deletes a blob. The commit history cannot be deleted through the store.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentName {
		return fmt.Errorf("delete %s: commit history is append-only", name)
	}
	return s.store.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

// Version returns the latest committed version, or 0 before the first commit.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	v, _, err := s.getLatestVersion(ctx)
	return v, err
}

// getLatestVersion queries DynamoDB for the latest committed version.
func (s *DDBCommitStore) getLatestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	pathAttr, ok := item["snapshot_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid snapshot_path attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, pathAttr.Value, nil
}

// commitVersion atomically commits a new snapshot pointer using a DynamoDB conditional write.
func (s *DDBCommitStore) commitVersion(ctx context.Context, snapshotPath string) error {
	currentVersion, _, err := s.getLatestVersion(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: s.baseURI},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(newVersion, 10)},
			"snapshot_path": &types.AttributeValueMemberS{Value: snapshotPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

// virtualCurrentBlob is a simple in-memory blob for the CURRENT content.
type virtualCurrentBlob struct {
	content []byte
}

func (b *virtualCurrentBlob) Close() error {
	return nil
}

func (b *virtualCurrentBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *virtualCurrentBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *virtualCurrentBlob) ReadRange(_ context.Context, off, lenReq int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := min(off+lenReq, int64(len(b.content)))
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
