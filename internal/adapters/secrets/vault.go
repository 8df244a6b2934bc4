package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/order-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault backend
type VaultConfig struct {
	Address   string
	Token     string
	RoleID    string // AppRole login when set
	SecretID  string
	MountPath string // KV v2 mount, default "secret"
	CacheTTL  time.Duration
}

// kvReader is the part of the Vault logical client the adapter uses
type kvReader interface {
	ReadWithDataWithContext(ctx context.Context, path string, data map[string][]string) (*vault.Secret, error)
}

type vaultSecretManager struct {
	logical   kvReader
	cache     *secretCache
	logger    *zap.Logger
	mountPath string
}

// NewVaultSecretManager creates the Vault backend and authenticates
func NewVaultSecretManager(ctx context.Context, cfg VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}
	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}

	logger.Info("Vault backend initialized",
		zap.String("address", vaultConfig.Address),
		zap.String("mount_path", cfg.MountPath))

	return newVaultSecretManager(client.Logical(), cfg.MountPath, cfg.CacheTTL, logger), nil
}

func newVaultSecretManager(logical kvReader, mountPath string, ttl time.Duration, logger *zap.Logger) *vaultSecretManager {
	return &vaultSecretManager{
		logical:   logical,
		cache:     newSecretCache(ttl),
		logger:    logger,
		mountPath: mountPath,
	}
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg VaultConfig) error {
	switch {
	case cfg.RoleID != "":
		if cfg.SecretID == "" {
			return errors.New("secret_id is required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return errors.New("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil
	case cfg.Token != "":
		client.SetToken(cfg.Token)
		return nil
	default:
		return errors.New("VAULT_TOKEN or VAULT_ROLE_ID is required")
	}
}

// GetSecret reads the latest version of a KV v2 secret
func (v *vaultSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	if cached := v.cache.get(secretPath); cached != nil {
		return cached, nil
	}
	secret, err := v.read(ctx, secretPath, nil)
	if err != nil {
		return nil, err
	}
	v.cache.set(secretPath, secret)
	return secret, nil
}

// GetSecretVersion reads a specific KV v2 version
func (v *vaultSecretManager) GetSecretVersion(ctx context.Context, secretPath, version string) (*ports.Secret, error) {
	return v.read(ctx, secretPath, url.Values{"version": {version}})
}

// read fetches mount/data/<dir> and picks the field named by the last path
// element, falling back to "value". "order-service/efi/client_secret" reads
// field client_secret of secret order-service/efi.
func (v *vaultSecretManager) read(ctx context.Context, secretPath string, params url.Values) (*ports.Secret, error) {
	dir, field := path.Split(path.Clean(secretPath))
	dir = path.Clean(dir)
	fullPath := path.Join(v.mountPath, "data", dir)

	secret, err := v.logical.ReadWithDataWithContext(ctx, fullPath, params)
	if err != nil {
		v.logger.Error("Failed to retrieve secret from Vault", zap.String("path", secretPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format from Vault at %s", fullPath)
	}

	value, _ := data[field].(string)
	if value == "" {
		value, _ = data["value"].(string)
	}
	if value == "" {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
	}

	result := &ports.Secret{Value: value, Metadata: map[string]string{"path": fullPath}}
	if metadata, ok := secret.Data["metadata"].(map[string]interface{}); ok {
		if ver, ok := metadata["version"].(json.Number); ok {
			result.Version = ver.String()
		}
		if ct, ok := metadata["created_time"].(string); ok {
			result.CreatedAt = ct
		}
	}
	return result, nil
}
