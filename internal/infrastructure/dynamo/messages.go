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

// MessageRepo provides typed DynamoDB operations for the messages table.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// TxPut builds a transaction element for use with Transactor.Write.
func (r *MessageRepo) TxPut(m *domain.Message) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal message: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{TableName: aws.String(r.tableName), Item: item},
	}, nil
}

// ListByThread returns a thread's messages in chronological order via the
// thread_id-created_at GSI.
func (r *MessageRepo) ListByThread(ctx context.Context, threadID string) ([]domain.Message, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("thread_id-created_at-index"),
		KeyConditionExpression: aws.String("thread_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: threadID},
		},
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
