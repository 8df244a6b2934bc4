package postgres

import (
	"context"
	"fmt"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
)

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository persists the admin-editable store configuration
type SettingsRepository struct{}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// List returns every stored setting
func (r *SettingsRepository) List(ctx context.Context, db ports.DBTX) (domain.StoreSettings, error) {
	rows, err := db.Query(ctx, `SELECT key, value FROM store_settings ORDER BY key`)
	if err != nil {
		return nil, mapError(fmt.Errorf("list store settings: %w", err))
	}
	defer rows.Close()

	settings := make(domain.StoreSettings)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, mapError(fmt.Errorf("scan store setting: %w", err))
		}
		settings[key] = value
	}
	return settings, mapError(rows.Err())
}

// Upsert inserts or replaces one setting
func (r *SettingsRepository) Upsert(ctx context.Context, tx ports.DBTX, key, value string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO store_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return mapError(fmt.Errorf("upsert store setting %q: %w", key, err))
	}
	return nil
}
