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

// BidRepo provides typed DynamoDB operations for the bids table.
type BidRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBidRepo(client *dynamodb.Client, tableName string) *BidRepo {
	return &BidRepo{client: client, tableName: tableName}
}

func (r *BidRepo) Put(ctx context.Context, b *domain.Bid) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal bid: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// TxPut builds a transaction element for use with Transactor.Write.
func (r *BidRepo) TxPut(b *domain.Bid) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal bid: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{TableName: aws.String(r.tableName), Item: item},
	}, nil
}

func (r *BidRepo) Get(ctx context.Context, bidID string) (*domain.Bid, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("bid_id", bidID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("bid not found: %w", domain.ErrNotFound)
	}
	var b domain.Bid
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns a user's bids, newest first, via the user_id-created_at GSI.
func (r *BidRepo) ListByUser(ctx context.Context, userID string) ([]domain.Bid, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var bids []domain.Bid
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *BidRepo) Update(ctx context.Context, bidID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("bid_id", bidID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
