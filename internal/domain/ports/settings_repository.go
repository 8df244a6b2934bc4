package ports

import (
	"context"

	"github.com/kevin07696/order-service/internal/domain"
)

// SettingsRepository defines the interface for the store configuration table
type SettingsRepository interface {
	// List returns every stored setting
	List(ctx context.Context, db DBTX) (domain.StoreSettings, error)

	// Upsert inserts or replaces one setting
	Upsert(ctx context.Context, tx DBTX, key, value string) error
}
