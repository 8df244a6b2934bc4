package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevin07696/order-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// localSecretManager reads secrets from files under a base directory.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a new local filesystem secret manager
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads a secret file. JSON files with a "value" field are
// unwrapped; anything else is returned as trimmed plain text.
func (m *localSecretManager) GetSecret(_ context.Context, secretPath string) (*ports.Secret, error) {
	clean := filepath.Clean("/" + secretPath)
	filePath := filepath.Join(m.basePath, clean)

	m.logger.Debug("Reading secret from filesystem", zap.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var secretData struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		return &ports.Secret{
			Value:     secretData.Value,
			Version:   "v1",
			Metadata:  secretData.Tags,
			CreatedAt: secretData.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "v1",
	}, nil
}

// GetSecretVersion returns the file content; files have no history
func (m *localSecretManager) GetSecretVersion(ctx context.Context, path, _ string) (*ports.Secret, error) {
	return m.GetSecret(ctx, path)
}
