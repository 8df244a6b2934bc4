package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/order-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// AWSConfig contains configuration for the AWS Secrets Manager backend
type AWSConfig struct {
	Region   string
	Endpoint string // LocalStack and similar
	CacheTTL time.Duration
}

// secretValueGetter is the part of the Secrets Manager client the adapter uses
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type awsSecretsManager struct {
	client secretValueGetter
	cache  *secretCache
	logger *zap.Logger
}

// NewAWSSecretsManager creates the AWS backend using the default credential chain
func NewAWSSecretsManager(ctx context.Context, cfg AWSConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var opts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager backend initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", cfg.CacheTTL))

	return newAWSSecretsManager(secretsmanager.NewFromConfig(awsConfig, opts...), cfg.CacheTTL, logger), nil
}

func newAWSSecretsManager(client secretValueGetter, ttl time.Duration, logger *zap.Logger) *awsSecretsManager {
	return &awsSecretsManager{
		client: client,
		cache:  newSecretCache(ttl),
		logger: logger,
	}
}

// GetSecret retrieves the current version of a secret
func (a *awsSecretsManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		return cached, nil
	}
	secret, err := a.fetch(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(path)})
	if err != nil {
		return nil, err
	}
	a.cache.set(path, secret)
	return secret, nil
}

// GetSecretVersion retrieves a specific version of a secret
func (a *awsSecretsManager) GetSecretVersion(ctx context.Context, path, version string) (*ports.Secret, error) {
	return a.fetch(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:  aws.String(path),
		VersionId: aws.String(version),
	})
}

func (a *awsSecretsManager) fetch(ctx context.Context, input *secretsmanager.GetSecretValueInput) (*ports.Secret, error) {
	path := aws.ToString(input.SecretId)
	start := time.Now()

	result, err := a.client.GetSecretValue(ctx, input)
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		a.logger.Error("Failed to retrieve secret", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	a.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)))

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: make(map[string]string),
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}
	if result.ARN != nil {
		secret.Metadata["arn"] = *result.ARN
	}
	return secret, nil
}
