package ports

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when a backend has no secret at the path
var ErrSecretNotFound = errors.New("secret not found")

// Secret represents a retrieved secret with metadata
type Secret struct {
	Metadata  map[string]string
	Value     string
	Version   string
	CreatedAt string
}

// SecretManagerAdapter reads secrets from a secret management backend.
// Path format depends on the backend:
//   - env:   "efi/client_secret" reads EFI_CLIENT_SECRET
//   - local: file under the base directory
//   - AWS:   "order-service/efi/client_secret" or a full ARN
//   - Vault: "order-service/efi" under the KV v2 mount, field "value" or the last path element
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version, used while a key rotates
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
