package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/storage"
)

// merchantReferenceGSI indexes transactions by merchant reference with
// created_at as the range key, so queries come back in creation order.
const merchantReferenceGSI = "merchant_reference-created_at-index"

// CreateTransaction stamps the server-assigned fields and writes the new
// record. The conditional put guards against a uuid collision ever
// overwriting an existing record.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := storage.StampNew(tx); err != nil {
		return nil, err
	}

	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to put transaction: %w", err)
	}

	return tx, nil
}

// GetTransaction retrieves a transaction from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": txID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	if len(result.Item) == 0 {
		return nil, storage.ErrTransactionNotFound
	}

	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(result.Item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	return &tx, nil
}

// ListTransactionsByMerchantReference queries the merchant reference GSI.
// The index range key is created_at, so ScanIndexForward gives ascending
// creation order without an in-memory sort.
func (s *Store) ListTransactionsByMerchantReference(ctx context.Context, merchantKey, merchantReference string) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(merchantReferenceGSI),
		KeyConditionExpression: aws.String("merchant_reference = :ref"),
		FilterExpression:       aws.String("merchant_key = :key"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: merchantReference},
			":key": &types.AttributeValueMemberS{Value: merchantKey},
		},
		ScanIndexForward: aws.Bool(true),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by merchant reference: %w", err)
	}

	transactions := []models.Transaction{}
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	return transactions, nil
}

// TransitionStatus atomically advances the transaction status. The
// conditional update only succeeds while the record is still in the `from`
// status, which makes a fired timer that lost a race a no-op error instead
// of a backwards write.
func (s *Store) TransitionStatus(ctx context.Context, txID string, from, to models.TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return storage.ErrInvalidTransition
	}

	updateExpression := "SET #status = :to"
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: string(to)},
		":from": &types.AttributeValueMemberS{Value: string(from)},
	}
	if to.Terminal() {
		completedAtAV, err := attributevalue.Marshal(time.Now())
		if err != nil {
			return fmt.Errorf("failed to marshal completion time: %w", err)
		}
		updateExpression = "SET #status = :to, completed_at = :now"
		values[":now"] = completedAtAV
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: txID},
		},
		UpdateExpression:    aws.String(updateExpression),
		ConditionExpression: aws.String("#status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: values,
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// The condition fails both for a missing record and for a record
			// that moved on; disambiguate with a read.
			if _, getErr := s.GetTransaction(ctx, txID); errors.Is(getErr, storage.ErrTransactionNotFound) {
				return storage.ErrTransactionNotFound
			}
			return storage.ErrInvalidTransition
		}
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	return nil
}

// RecordDeliveryAttempt increments the attempt counter and stores the
// attempt time; a confirmed attempt latches delivery_confirmed.
func (s *Store) RecordDeliveryAttempt(ctx context.Context, txID string, confirmed bool, at time.Time) error {
	attemptAtAV, err := attributevalue.Marshal(at)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt time: %w", err)
	}

	updateExpression := "SET delivery_attempts = delivery_attempts + :one, last_delivery_at = :at"
	values := map[string]types.AttributeValue{
		":one": &types.AttributeValueMemberN{Value: "1"},
		":at":  attemptAtAV,
	}
	if confirmed {
		updateExpression += ", delivery_confirmed = :confirmed"
		values[":confirmed"] = &types.AttributeValueMemberBOOL{Value: true}
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: txID},
		},
		UpdateExpression:          aws.String(updateExpression),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: values,
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to record delivery attempt: %w", err)
	}

	return nil
}
