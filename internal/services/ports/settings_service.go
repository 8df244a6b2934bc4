package ports

import (
	"context"

	"github.com/kevin07696/order-service/internal/domain"
)

// SettingsService defines the admin operations on the store configuration
type SettingsService interface {
	// Get returns every stored setting
	Get(ctx context.Context) (domain.StoreSettings, error)

	// Update upserts every entry of changes in one transaction and returns
	// the resulting configuration
	Update(ctx context.Context, changes domain.StoreSettings) (domain.StoreSettings, error)
}
