package storage

import (
	"context"

	"github.com/chris/gateway-simulator/pkg/models"
)

// MerchantStore defines the interface for merchant credential records. The
// core reads merchants to resolve signing secrets and the active flag;
// writes only happen through seeding and the admin surface.
type MerchantStore interface {
	// GetMerchant retrieves a merchant by its key.
	GetMerchant(ctx context.Context, key string) (*models.Merchant, error)

	// PutMerchant creates or replaces a merchant record.
	PutMerchant(ctx context.Context, m *models.Merchant) error
}
