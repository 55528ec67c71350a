package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicelink-api/internal/domain"
)

// MaxTransactItems is the DynamoDB TransactWriteItems limit.
const MaxTransactItems = 100

// Transactor commits a batch of writes atomically. Either every item lands or
// none do, which is what the offline sync upload relies on.
type Transactor struct {
	client *dynamodb.Client
}

func NewTransactor(client *dynamodb.Client) *Transactor {
	return &Transactor{client: client}
}

func (t *Transactor) Write(ctx context.Context, items []types.TransactWriteItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) > MaxTransactItems {
		return fmt.Errorf("transaction of %d items exceeds limit of %d: %w",
			len(items), MaxTransactItems, domain.ErrBadRequest)
	}
	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction cancelled: %w", err)
		}
		return err
	}
	return nil
}
