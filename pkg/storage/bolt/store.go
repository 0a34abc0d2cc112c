// Package bolt provides a BoltDB-backed persistence layer.
//
// BoltDB is an embedded key/value store keeping all data in a single file,
// which makes it the default backend for standalone simulator runs: no
// external database process is required. Transactions and merchants live in
// separate buckets as JSON values. Bolt serializes writers, which is the
// record-level serialization the core relies on for conditional status
// transitions.
package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/storage"
)

const (
	transactionsBucket = "transactions"
	merchantsBucket    = "merchants"
)

// Store wraps a BoltDB database and implements the storage interfaces.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures
// the buckets exist.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{transactionsBucket, merchantsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTransaction stamps the server-assigned fields and persists the
// record.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := storage.StampNew(tx); err != nil {
		return nil, err
	}

	err := s.db.Update(func(btx *bolt.Tx) error {
		data, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		return btx.Bucket([]byte(transactionsBucket)).Put([]byte(tx.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransaction retrieves a transaction by ID.
// Returns storage.ErrTransactionNotFound if the key does not exist.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	var record models.Transaction

	err := s.db.View(func(btx *bolt.Tx) error {
		v := btx.Bucket([]byte(transactionsBucket)).Get([]byte(txID))
		if v == nil {
			return storage.ErrTransactionNotFound
		}
		return json.Unmarshal(v, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTransactionsByMerchantReference scans the transactions bucket for
// records matching the merchant key and reference, ordered by creation time
// ascending. A full scan is fine at simulator scale.
func (s *Store) ListTransactionsByMerchantReference(ctx context.Context, merchantKey, merchantReference string) ([]models.Transaction, error) {
	var items []models.Transaction

	err := s.db.View(func(btx *bolt.Tx) error {
		return btx.Bucket([]byte(transactionsBucket)).ForEach(func(k, v []byte) error {
			var record models.Transaction
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			if record.MerchantKey == merchantKey && record.MerchantReference == merchantReference {
				items = append(items, record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	// Return an empty slice rather than nil so the JSON encoder emits []
	// instead of null.
	if items == nil {
		items = []models.Transaction{}
	}
	return items, nil
}

// TransitionStatus advances a transaction from one status to the next. The
// update runs inside a single Bolt write transaction, so the check against
// the current status and the write are atomic.
func (s *Store) TransitionStatus(ctx context.Context, txID string, from, to models.TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return storage.ErrInvalidTransition
	}

	return s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket([]byte(transactionsBucket))
		v := b.Get([]byte(txID))
		if v == nil {
			return storage.ErrTransactionNotFound
		}

		var record models.Transaction
		if err := json.Unmarshal(v, &record); err != nil {
			return err
		}
		if record.Status != from {
			return storage.ErrInvalidTransition
		}

		record.Status = to
		if to.Terminal() {
			now := time.Now()
			record.CompletedAt = &now
		}

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		return b.Put([]byte(txID), data)
	})
}

// RecordDeliveryAttempt increments the attempt counter, stores the attempt
// time and, on a confirmed attempt, latches the delivered flag.
func (s *Store) RecordDeliveryAttempt(ctx context.Context, txID string, confirmed bool, at time.Time) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket([]byte(transactionsBucket))
		v := b.Get([]byte(txID))
		if v == nil {
			return storage.ErrTransactionNotFound
		}

		var record models.Transaction
		if err := json.Unmarshal(v, &record); err != nil {
			return err
		}

		record.DeliveryAttempts++
		record.LastDeliveryAt = &at
		if confirmed {
			record.DeliveryConfirmed = true
		}

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		return b.Put([]byte(txID), data)
	})
}

// GetMerchant retrieves a merchant by key.
// Returns storage.ErrMerchantNotFound if the key does not exist.
func (s *Store) GetMerchant(ctx context.Context, key string) (*models.Merchant, error) {
	var m models.Merchant

	err := s.db.View(func(btx *bolt.Tx) error {
		v := btx.Bucket([]byte(merchantsBucket)).Get([]byte(key))
		if v == nil {
			return storage.ErrMerchantNotFound
		}
		return json.Unmarshal(v, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// PutMerchant creates or replaces a merchant record.
func (s *Store) PutMerchant(ctx context.Context, m *models.Merchant) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return btx.Bucket([]byte(merchantsBucket)).Put([]byte(m.Key), data)
	})
}
