package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/gateway-simulator/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the store. Tests
// substitute a mock for it.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements the storage interfaces using AWS DynamoDB. It backs the
// simulator when a durable shared store is wanted across multiple
// environments; the Bolt backend covers standalone runs.
type Store struct {
	Client                DynamoDBAPI
	TransactionsTableName string
	MerchantsTableName    string
}

// New creates a new Store.
func New(client DynamoDBAPI, transactionsTable, merchantsTable string) *Store {
	return &Store{
		Client:                client,
		TransactionsTableName: transactionsTable,
		MerchantsTableName:    merchantsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
