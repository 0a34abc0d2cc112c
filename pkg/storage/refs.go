package storage

import (
	"fmt"
	"time"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

// requestReferenceAlphabet keeps request references uppercase alphanumeric,
// which is what integrating systems expect to echo back in queries.
const requestReferenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// StampNew fills in the server-assigned fields of a freshly created
// transaction: primary key, request reference, initial status and creation
// time. Backends call this once, before the initial write; the request
// reference is generated exactly once and never reused.
func StampNew(tx *models.Transaction) error {
	gen, err := nanoid.CustomASCII(requestReferenceAlphabet, 16)
	if err != nil {
		return fmt.Errorf("failed to build reference generator: %w", err)
	}

	tx.ID = uuid.New().String()
	tx.RequestReference = gen()
	tx.Status = models.PENDING
	tx.CreatedAt = time.Now()
	tx.CompletedAt = nil
	tx.DeliveryAttempts = 0
	tx.DeliveryConfirmed = false
	return nil
}
