package storage

import (
	"context"
	"time"

	"github.com/chris/gateway-simulator/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// ListTransactionsByMerchantReference retrieves every transaction a
	// merchant created under a business reference, ordered by creation time
	// ascending. Merchant references are not unique; retries of the same
	// business payment produce multiple records.
	ListTransactionsByMerchantReference(ctx context.Context, merchantKey, merchantReference string) ([]models.Transaction, error)
}

// TransactionManager defines the interface for creating and advancing
// transactions.
type TransactionManager interface {
	// CreateTransaction persists a new transaction. Server-assigned fields
	// (id, request reference, PENDING status, creation time) are stamped
	// before the write and returned on the stored record.
	CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// TransitionStatus conditionally advances a transaction from one status
	// to the next. The write only happens if the record is currently in the
	// `from` status and `to` is a forward step; otherwise
	// ErrInvalidTransition is returned. Reaching a terminal status stamps
	// CompletedAt.
	TransitionStatus(ctx context.Context, txID string, from, to models.TransactionStatus) error

	// RecordDeliveryAttempt increments the delivery attempt counter and
	// stores the attempt time. A confirmed attempt additionally marks the
	// webhook as delivered; the flag is never cleared.
	RecordDeliveryAttempt(ctx context.Context, txID string, confirmed bool, at time.Time) error
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
