package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicelink-api/internal/domain"
)

// ThreadRepo provides typed DynamoDB operations for the message threads table.
type ThreadRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewThreadRepo(client *dynamodb.Client, tableName string) *ThreadRepo {
	return &ThreadRepo{client: client, tableName: tableName}
}

func (r *ThreadRepo) Put(ctx context.Context, t *domain.Thread) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal thread: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ThreadRepo) Get(ctx context.Context, threadID string) (*domain.Thread, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("thread_id", threadID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("thread not found: %w", domain.ErrNotFound)
	}
	var t domain.Thread
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByParticipant scans for threads whose participants list contains userID.
// Thread volume per deployment is small enough that a scan is acceptable here.
func (r *ThreadRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Thread, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("contains(participants, :uid)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var threads []domain.Thread
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}
