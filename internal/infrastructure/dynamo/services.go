package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicelink-api/internal/domain"
)

// ServiceRepo provides typed DynamoDB operations for the catalog services table.
type ServiceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewServiceRepo(client *dynamodb.Client, tableName string) *ServiceRepo {
	return &ServiceRepo{client: client, tableName: tableName}
}

func (r *ServiceRepo) Put(ctx context.Context, s *domain.Service) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ServiceRepo) Get(ctx context.Context, serviceID string) (*domain.Service, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("service_id", serviceID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("service not found: %w", domain.ErrNotFound)
	}
	var s domain.Service
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List scans the catalog applying the filter server-side where DynamoDB can.
// Free-text matching on title is done by the service layer.
func (r *ServiceRepo) List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	expr := "active = :active"
	values := map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: true},
	}
	if filter.CategoryID != "" {
		expr += " AND category_id = :cat"
		values[":cat"] = &types.AttributeValueMemberS{Value: filter.CategoryID}
	}
	if filter.UpdatedSince != nil {
		expr += " AND updated_at > :since"
		values[":since"] = &types.AttributeValueMemberS{
			Value: filter.UpdatedSince.UTC().Format(time.RFC3339),
		}
	}
	input.FilterExpression = aws.String(expr)
	input.ExpressionAttributeValues = values

	var services []domain.Service
	var startKey map[string]types.AttributeValue
	for {
		input.ExclusiveStartKey = startKey
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Service
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		services = append(services, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return services, nil
}

// ListByProvider queries the provider_id-index GSI.
func (r *ServiceRepo) ListByProvider(ctx context.Context, providerID string) ([]domain.Service, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("provider_id-index"),
		KeyConditionExpression: aws.String("provider_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: providerID},
		},
	})
	if err != nil {
		return nil, err
	}
	var services []domain.Service
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (r *ServiceRepo) Update(ctx context.Context, serviceID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("service_id", serviceID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
