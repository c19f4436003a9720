package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/minsketch/blobstore"
)

// CurrentName is the blob name whose writes DDBCommitStore turns into
// versioned DynamoDB commits.
const CurrentName = "CURRENT"

// ErrConcurrentModification is returned when another writer committed the
// same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Commit is one version of the CURRENT pointer.
type Commit struct {
	Version     uint64
	Target      string
	CommittedAt time.Time
}

// DDBCommitStore is an S3 store whose CURRENT pointer is kept in DynamoDB.
//
// S3 has no compare-and-swap, so two catalog writers could overwrite each
// other's CURRENT. Each commit instead inserts version n+1 with a
// conditional put; the loser gets ErrConcurrentModification and can reload
// the catalog and retry.
//
// Table schema:
//   - Partition key: base_uri (string), the S3 bucket/prefix
//   - Sort key: version (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name minsketch-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	*Store
	ddb     DDBClient
	table   string
	baseURI string
	now     func() time.Time
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// NewDDBCommitStore wraps store. baseURI ("s3://bucket/prefix") partitions
// the commits of different catalogs sharing one table.
func NewDDBCommitStore(store *Store, ddb DDBClient, table, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		Store:   store,
		ddb:     ddb,
		table:   table,
		baseURI: baseURI,
		now:     time.Now,
	}
}

// Open opens a blob. CURRENT is served from the latest commit.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.Store.Open(ctx, name)
	}
	commits, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, blobstore.ErrNotFound
	}
	return blobstore.BytesBlob([]byte(commits[0].Target)), nil
}

// Put writes a blob. Writing CURRENT commits a new version.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != CurrentName {
		return s.Store.Put(ctx, name, data)
	}
	latest, err := s.Latest(ctx)
	if err != nil {
		return err
	}
	return s.commit(ctx, latest.Version+1, string(data))
}

// Create creates a writable blob. CURRENT cannot be streamed.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentName {
		return nil, fmt.Errorf("s3: %s must be written with Put", CurrentName)
	}
	return s.Store.Create(ctx, name)
}

// Latest returns the newest commit, or the zero Commit when nothing has been
// committed yet.
func (s *DDBCommitStore) Latest(ctx context.Context) (Commit, error) {
	commits, err := s.History(ctx, 1)
	if err != nil || len(commits) == 0 {
		return Commit{}, err
	}
	return commits[0], nil
}

// History returns up to limit commits, newest first.
func (s *DDBCommitStore) History(ctx context.Context, limit int32) ([]Commit, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: query commits: %w", err)
	}

	commits := make([]Commit, 0, len(resp.Items))
	for _, item := range resp.Items {
		c, err := decodeCommit(item)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, version uint64, target string) error {
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"base_uri":     &types.AttributeValueMemberS{Value: s.baseURI},
			"version":      &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"target":       &types.AttributeValueMemberS{Value: target},
			"committed_at": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	var condErr *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &condErr):
		return ErrConcurrentModification
	case err != nil:
		return fmt.Errorf("s3: commit version %d: %w", version, err)
	}
	return nil
}

func decodeCommit(item map[string]types.AttributeValue) (Commit, error) {
	version, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return Commit{}, errors.New("s3: commit without numeric version")
	}
	target, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return Commit{}, errors.New("s3: commit without target")
	}

	var c Commit
	var err error
	if c.Version, err = strconv.ParseUint(version.Value, 10, 64); err != nil {
		return Commit{}, fmt.Errorf("s3: commit version: %w", err)
	}
	c.Target = target.Value

	// Commits written before committed_at existed leave it zero.
	if at, ok := item["committed_at"].(*types.AttributeValueMemberS); ok {
		c.CommittedAt, _ = time.Parse(time.RFC3339Nano, at.Value)
	}
	return c, nil
}
