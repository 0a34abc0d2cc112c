package storage

import "errors"

// ErrTransactionNotFound is returned when a transaction does not exist.
// Scheduled work hitting this error abandons the transition instead of
// retrying.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrMerchantNotFound is returned when no merchant exists under a key.
var ErrMerchantNotFound = errors.New("merchant not found")

// ErrInvalidTransition is returned when a status update would move a
// transaction backwards, or when the record is no longer in the expected
// source state.
var ErrInvalidTransition = errors.New("invalid status transition")
