package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/storage"
	"github.com/chris/gateway-simulator/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("PutItem", mock.Anything, mock.Anything).Once().Return(&dynamodb.PutItemOutput{}, nil)

		tx := &models.Transaction{
			MerchantReference: "order-1",
			MerchantKey:       "m1",
			Amount:            "99.99",
			Currency:          "SGD",
			Network:           models.NetworkAlipay,
		}
		result, err := store.CreateTransaction(context.Background(), tx)

		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.NotEmpty(t, result.RequestReference)
		assert.Equal(t, models.PENDING, result.Status)
		mockClient.AssertExpectations(t)
	})

	t.Run("Put Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("put failed"))

		_, err := store.CreateTransaction(context.Background(), &models.Transaction{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put transaction")
		mockClient.AssertExpectations(t)
	})
}

func TestGetTransaction(t *testing.T) {
	tx := &models.Transaction{ID: "tx-1", Status: models.PENDING, Amount: "100.00"}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		item, _ := attributevalue.MarshalMap(tx)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

		result, err := store.GetTransaction(context.Background(), "tx-1")

		require.NoError(t, err)
		assert.Equal(t, "tx-1", result.ID)
		assert.Equal(t, "100.00", result.Amount)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.GetTransaction(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Client Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("get failed"))

		_, err := store.GetTransaction(context.Background(), "tx-1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get transaction")
		mockClient.AssertExpectations(t)
	})
}

func TestTransitionStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Once().Return(&dynamodb.UpdateItemOutput{}, nil)

		err := store.TransitionStatus(context.Background(), "tx-1", models.PENDING, models.PROCESSING)

		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Backwards Move Rejected Without A Write", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		err := store.TransitionStatus(context.Background(), "tx-1", models.SUCCESS, models.PROCESSING)

		assert.ErrorIs(t, err, storage.ErrInvalidTransition)
		mockClient.AssertNotCalled(t, "UpdateItem")
	})

	t.Run("Record Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		err := store.TransitionStatus(context.Background(), "tx-1", models.PENDING, models.PROCESSING)

		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Record Moved On", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		current := &models.Transaction{ID: "tx-1", Status: models.SUCCESS}
		item, _ := attributevalue.MarshalMap(current)

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

		err := store.TransitionStatus(context.Background(), "tx-1", models.PENDING, models.PROCESSING)

		assert.ErrorIs(t, err, storage.ErrInvalidTransition)
		mockClient.AssertExpectations(t)
	})
}

func TestRecordDeliveryAttempt(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Once().Return(&dynamodb.UpdateItemOutput{}, nil)

		err := store.RecordDeliveryAttempt(context.Background(), "tx-1", true, time.Now())

		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Record Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		err := store.RecordDeliveryAttempt(context.Background(), "missing", false, time.Now())

		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListTransactionsByMerchantReference(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		items := make([]map[string]types.AttributeValue, 2)
		items[0], _ = attributevalue.MarshalMap(&models.Transaction{ID: "tx-1", MerchantReference: "order-1"})
		items[1], _ = attributevalue.MarshalMap(&models.Transaction{ID: "tx-2", MerchantReference: "order-1"})
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)

		result, err := store.ListTransactionsByMerchantReference(context.Background(), "m1", "order-1")

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "tx-1", result[0].ID)
		mockClient.AssertExpectations(t)
	})

	t.Run("No Matches", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

		result, err := store.ListTransactionsByMerchantReference(context.Background(), "m1", "order-1")

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NotNil(t, result)
	})
}

func TestMerchants(t *testing.T) {
	t.Run("Get Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		item, _ := attributevalue.MarshalMap(&models.Merchant{Key: "m1", Secret: "s3cret", Active: true})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

		m, err := store.GetMerchant(context.Background(), "m1")

		require.NoError(t, err)
		assert.Equal(t, "s3cret", m.Secret)
		assert.True(t, m.Active)
	})

	t.Run("Get Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.GetMerchant(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrMerchantNotFound)
	})

	t.Run("Put Stamps CreatedAt", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "transactions", "merchants")

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		m := &models.Merchant{Key: "m1", Secret: "s3cret", Active: true}
		require.NoError(t, store.PutMerchant(context.Background(), m))
		assert.False(t, m.CreatedAt.IsZero())
	})
}
