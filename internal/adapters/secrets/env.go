package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/kevin07696/order-service/internal/adapters/ports"
)

// envSecretManager reads secrets from process environment variables.
// "efi/client_secret" maps to EFI_CLIENT_SECRET.
type envSecretManager struct {
	lookup func(string) (string, bool)
}

// NewEnvSecretManager creates the environment backend
func NewEnvSecretManager() ports.SecretManagerAdapter {
	return &envSecretManager{lookup: os.LookupEnv}
}

// EnvName returns the environment variable a secret path maps to
func EnvName(path string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, strings.Trim(path, "/"))
}

func (m *envSecretManager) GetSecret(_ context.Context, path string) (*ports.Secret, error) {
	name := EnvName(path)
	value, ok := m.lookup(name)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, name)
	}
	return &ports.Secret{Value: value, Version: "env"}, nil
}

// GetSecretVersion ignores version; the environment holds one value
func (m *envSecretManager) GetSecretVersion(ctx context.Context, path, _ string) (*ports.Secret, error) {
	return m.GetSecret(ctx, path)
}
