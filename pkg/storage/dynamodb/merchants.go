package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/storage"
)

// GetMerchant retrieves a merchant record by its key.
func (s *Store) GetMerchant(ctx context.Context, key string) (*models.Merchant, error) {
	itemKey, err := attributevalue.MarshalMap(map[string]string{"key": key})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merchant key: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.MerchantsTableName),
		Key:       itemKey,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant from DynamoDB: %w", err)
	}

	if len(result.Item) == 0 {
		return nil, storage.ErrMerchantNotFound
	}

	var m models.Merchant
	if err := attributevalue.UnmarshalMap(result.Item, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merchant: %w", err)
	}

	return &m, nil
}

// PutMerchant creates or replaces a merchant record.
func (s *Store) PutMerchant(ctx context.Context, m *models.Merchant) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("failed to marshal merchant: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.MerchantsTableName),
		Item:      item,
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to put merchant: %w", err)
	}

	return nil
}
