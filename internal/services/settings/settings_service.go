// Package settings manages the admin-editable store configuration.
package settings

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	svcports "github.com/kevin07696/order-service/internal/services/ports"
	"go.uber.org/zap"
)

var _ svcports.SettingsService = (*Service)(nil)

// Service implements svcports.SettingsService
type Service struct {
	db       ports.DBPort
	settings ports.SettingsRepository
	logger   *zap.Logger
}

// NewService creates a new settings service
func NewService(db ports.DBPort, settings ports.SettingsRepository, logger *zap.Logger) *Service {
	return &Service{db: db, settings: settings, logger: logger}
}

// Get returns every stored setting
func (s *Service) Get(ctx context.Context) (domain.StoreSettings, error) {
	var out domain.StoreSettings
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		out, err = s.settings.List(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update validates every key before writing anything, then upserts all
// changes in one transaction.
func (s *Service) Update(ctx context.Context, changes domain.StoreSettings) (domain.StoreSettings, error) {
	if len(changes) == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "no settings given")
	}
	keys := make([]string, 0, len(changes))
	for key := range changes {
		if err := domain.ValidateSettingKey(key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out domain.StoreSettings
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, key := range keys {
			if err := s.settings.Upsert(ctx, tx, key, changes[key]); err != nil {
				return err
			}
		}
		var err error
		out, err = s.settings.List(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Store settings updated", zap.Strings("keys", keys))
	return out, nil
}
