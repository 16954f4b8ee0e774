package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the backend uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoBackend keeps each collection as one item keyed by "pk".
type DynamoBackend struct {
	client    DynamoAPI
	tableName string
}

// dynamoRecord represents the DynamoDB item structure
type dynamoRecord struct {
	Key       string `dynamodbav:"pk"`
	Value     string `dynamodbav:"value"`
	Version   int64  `dynamodbav:"version"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoBackend(client DynamoAPI, tableName string) *DynamoBackend {
	return &DynamoBackend{client: client, tableName: tableName}
}

// NewDynamoClient loads the default AWS configuration. A non-empty endpoint
// points the client at DynamoDB Local or another compatible service.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (b *DynamoBackend) Get(ctx context.Context, key string) (Record, error) {
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if result.Item == nil {
		return Record{Key: key}, nil
	}

	var dr dynamoRecord
	if err := attributevalue.UnmarshalMap(result.Item, &dr); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return Record{Key: key, Value: []byte(dr.Value), Version: dr.Version}, nil
}

// Commit writes all records in one TransactWriteItems call, each guarded by
// a condition on its version.
func (b *DynamoBackend) Commit(ctx context.Context, writes ...Write) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	items := make([]types.TransactWriteItem, 0, len(writes))

	for _, w := range writes {
		av, err := attributevalue.MarshalMap(dynamoRecord{
			Key:       w.Key,
			Value:     string(w.Value),
			Version:   w.ExpectedVersion + 1,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", w.Key, err)
		}

		put := &types.Put{
			TableName: aws.String(b.tableName),
			Item:      av,
		}
		if w.ExpectedVersion == 0 {
			put.ConditionExpression = aws.String("attribute_not_exists(pk)")
		} else {
			put.ConditionExpression = aws.String("#v = :expected")
			put.ExpressionAttributeNames = map[string]string{"#v": "version"}
			put.ExpressionAttributeValues = map[string]types.AttributeValue{
				":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(w.ExpectedVersion, 10)},
			}
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	_, err := b.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err == nil {
		return nil
	}

	var cancelled *types.TransactionCanceledException
	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &cancelled) || errors.As(err, &condFailed) {
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	}
	return fmt.Errorf("failed to commit: %w", err)
}

// EnsureTable creates the table with on-demand billing if it does not exist.
func (b *DynamoBackend) EnsureTable(ctx context.Context) error {
	_, err := b.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(b.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})

	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("failed to create table %s: %w", b.tableName, err)
	}
	return nil
}
