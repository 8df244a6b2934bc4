// Package secrets reads credentials from the configured backend at startup.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/kevin07696/order-service/internal/adapters/ports"
	"github.com/kevin07696/order-service/internal/config"
	"go.uber.org/zap"
)

// New creates the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "", "env":
		return NewEnvSecretManager(), nil
	case "local":
		return NewLocalSecretManager(cfg.LocalPath, logger), nil
	case "aws":
		return NewAWSSecretsManager(ctx, AWSConfig{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
			CacheTTL: cfg.CacheTTL,
		}, logger)
	case "vault":
		return NewVaultSecretManager(ctx, VaultConfig{
			Address:   cfg.VaultAddr,
			Token:     cfg.VaultToken,
			RoleID:    cfg.VaultRoleID,
			SecretID:  cfg.VaultSecretID,
			MountPath: cfg.VaultMount,
			CacheTTL:  cfg.CacheTTL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", cfg.Backend)
	}
}

// Binding ties a secret path to the config field it fills
type Binding struct {
	Target *string
	Path   string
}

// Resolve fills every empty binding target from the backend. Values already
// set through the environment win. Missing secrets are skipped; any other
// backend failure aborts startup.
func Resolve(ctx context.Context, mgr ports.SecretManagerAdapter, prefix string, logger *zap.Logger, bindings ...Binding) error {
	for _, b := range bindings {
		if *b.Target != "" {
			continue
		}
		full := b.Path
		if prefix != "" {
			full = path.Join(prefix, b.Path)
		}
		secret, err := mgr.GetSecret(ctx, full)
		if errors.Is(err, ports.ErrSecretNotFound) {
			logger.Debug("Secret not set", zap.String("path", full))
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve secret %s: %w", full, err)
		}
		*b.Target = secret.Value
		logger.Info("Secret resolved", zap.String("path", full), zap.String("version", secret.Version))
	}
	return nil
}

// ConfigBindings lists the secret-bearing fields of cfg
func ConfigBindings(cfg *config.Config) []Binding {
	return []Binding{
		{Path: "efi/client_id", Target: &cfg.Efi.ClientID},
		{Path: "efi/client_secret", Target: &cfg.Efi.ClientSecret},
		{Path: "efi/cert_password", Target: &cfg.Efi.CertificatePass},
		{Path: "mercadopago/access_token", Target: &cfg.MercadoPago.AccessToken},
		{Path: "admin/token", Target: &cfg.Auth.AdminToken},
		{Path: "admin/jwt_secret", Target: &cfg.Auth.JWTSecret},
		{Path: "database/password", Target: &cfg.Database.Password},
	}
}
