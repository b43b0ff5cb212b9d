package dal

import (
	"context"
	"errors"
	"fmt"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBStore
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// storeItem is one row: hash key namespace, range key key
type storeItem struct {
	Namespace string `dynamodbav:"namespace"`
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
}

// DynamoDBStore keeps each namespace in one partition of a DynamoDB table
type DynamoDBStore struct {
	client    DynamoDBAPI
	table     string
	namespace string
	logger    logger.Logger
}

// NewDynamoDBClient creates a DynamoDB client from config
func NewDynamoDBClient(ctx context.Context, cfg *models.Config, log logger.Logger) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Use static credentials if provided
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		))
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		// Override endpoint for local DynamoDB
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	log.Infof("DynamoDB storage client initialized (region %s, table %s)", cfg.AWSRegion, cfg.DynamoDBTable)
	return client, nil
}

// NewDynamoDBStore wraps a DynamoDB client for a table and namespace
func NewDynamoDBStore(client DynamoDBAPI, table, namespace string, log logger.Logger) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		table:     table,
		namespace: namespace,
		logger:    log,
	}
}

func (s *DynamoDBStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"namespace": &types.AttributeValueMemberS{Value: s.namespace},
		"key":       &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		s.logAPIError("GetItem", err)
		return nil, false, fmt.Errorf("dynamodb get item: %w", err)
	}
	if output.Item == nil {
		return nil, false, nil
	}

	var item storeItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item.Value, true, nil
}

func (s *DynamoDBStore) Set(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(storeItem{Namespace: s.namespace, Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		s.logAPIError("PutItem", err)
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(key),
	})
	if err != nil {
		s.logAPIError("DeleteItem", err)
		return fmt.Errorf("dynamodb delete item: %w", err)
	}
	return nil
}

// Clear queries the namespace partition page by page and deletes every item
func (s *DynamoDBStore) Clear(ctx context.Context) error {
	var startKey map[string]types.AttributeValue
	for {
		output, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("#ns = :ns"),
			ExpressionAttributeNames: map[string]string{
				"#ns": "namespace",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ns": &types.AttributeValueMemberS{Value: s.namespace},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			s.logAPIError("Query", err)
			return fmt.Errorf("dynamodb query: %w", err)
		}

		var items []storeItem
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &items); err != nil {
			return fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, item := range items {
			if err := s.Delete(ctx, item.Key); err != nil {
				return err
			}
		}

		if len(output.LastEvaluatedKey) == 0 {
			return nil
		}
		startKey = output.LastEvaluatedKey
	}
}

func (s *DynamoDBStore) Close() error {
	return nil
}

func (s *DynamoDBStore) logAPIError(op string, err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Errorf("DynamoDB %s on %s failed: %s: %s", op, s.table, apiErr.ErrorCode(), apiErr.ErrorMessage())
		return
	}
	s.logger.Errorf("DynamoDB %s on %s failed: %v", op, s.table, err)
}
