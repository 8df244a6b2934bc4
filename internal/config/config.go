package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      ServerConfig
	Database    DatabaseConfig
	Orders      OrdersConfig
	Gateway     GatewayConfig
	Efi         EfiConfig
	MercadoPago MercadoPagoConfig
	Auth        AuthConfig
	Kafka       KafkaConfig
	Secrets     SecretsConfig
	Logger      LoggerConfig
}

// ServerConfig holds HTTP, health and metrics listener configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	MetricsPort     int           `env:"METRICS_PORT" envDefault:"9090"`
	HealthGRPCPort  int           `env:"HEALTH_GRPC_PORT" envDefault:"9091"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME" envDefault:"orders"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	MinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`
}

// OrdersConfig holds order code and reconciliation behavior
type OrdersConfig struct {
	CodePrefix      string        `env:"ORDER_CODE_PREFIX" envDefault:"AC"`
	CodeTimezone    string        `env:"ORDER_CODE_TIMEZONE" envDefault:"UTC"`
	CodeMaxAttempts int           `env:"ORDER_CODE_MAX_ATTEMPTS" envDefault:"5"`
	DefaultCity     string        `env:"ORDER_DEFAULT_CITY" envDefault:"Araquari"`
	DefaultState    string        `env:"ORDER_DEFAULT_STATE" envDefault:"SC"`
	AmountFallback  bool          `env:"RECONCILE_AMOUNT_FALLBACK" envDefault:"true"`
	ConflictBackoff time.Duration `env:"ORDER_CONFLICT_BACKOFF" envDefault:"25ms"`
}

// GatewayConfig holds provider selection and shared call limits
type GatewayConfig struct {
	Provider         string        `env:"PAYMENT_PROVIDER" envDefault:"efi"`
	Timeout          time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
	FailureThreshold int           `env:"GATEWAY_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout   time.Duration `env:"GATEWAY_BREAKER_TIMEOUT" envDefault:"30s"`
}

// EfiConfig holds Efi Pay credentials and endpoints
type EfiConfig struct {
	ClientID        string `env:"EFI_CLIENT_ID"`
	ClientSecret    string `env:"EFI_CLIENT_SECRET"`
	PixKey          string `env:"EFI_PIX_KEY"`
	CertificatePath string `env:"EFI_CERT_PATH"`
	CertificatePass string `env:"EFI_CERT_PASSWORD"`
	Sandbox         bool   `env:"EFI_SANDBOX" envDefault:"true"`
	ChargesBaseURL  string `env:"EFI_CHARGES_URL"`
	PixBaseURL      string `env:"EFI_PIX_URL"`
}

// MercadoPagoConfig holds Mercado Pago credentials
type MercadoPagoConfig struct {
	AccessToken     string `env:"MP_ACCESS_TOKEN"`
	NotificationURL string `env:"MP_NOTIFICATION_URL"`
}

// AuthConfig holds admin authentication settings
type AuthConfig struct {
	Mode       string `env:"ADMIN_AUTH_MODE" envDefault:"token"` // token or jwt
	AdminToken string `env:"ADMIN_TOKEN"`
	JWTSecret  string `env:"ADMIN_JWT_SECRET"`
	JWTIssuer  string `env:"ADMIN_JWT_ISSUER" envDefault:"order-service"`
}

// KafkaConfig holds the outbox relay settings
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_TOPIC" envDefault:"orders.status"`
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// SecretsConfig selects where secrets are read from
type SecretsConfig struct {
	Backend       string        `env:"SECRETS_BACKEND" envDefault:"env"` // env, local, aws, vault
	Prefix        string        `env:"SECRETS_PREFIX" envDefault:"order-service"`
	LocalPath     string        `env:"SECRETS_LOCAL_PATH" envDefault:"./secrets"`
	CacheTTL      time.Duration `env:"SECRETS_CACHE_TTL" envDefault:"5m"`
	AWSRegion     string        `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpoint   string        `env:"AWS_SECRETS_ENDPOINT"`
	VaultAddr     string        `env:"VAULT_ADDR"`
	VaultToken    string        `env:"VAULT_TOKEN"`
	VaultRoleID   string        `env:"VAULT_ROLE_ID"`
	VaultSecretID string        `env:"VAULT_SECRET_ID"`
	VaultMount    string        `env:"VAULT_MOUNT" envDefault:"secret"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"` // debug, info, warn, error
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules env tags cannot express
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Password == "" && c.IsProduction() {
		return errors.New("DATABASE_URL or DB_PASSWORD is required in production")
	}
	if c.Orders.CodePrefix == "" {
		return errors.New("ORDER_CODE_PREFIX must not be empty")
	}
	if _, err := time.LoadLocation(c.Orders.CodeTimezone); err != nil {
		return fmt.Errorf("ORDER_CODE_TIMEZONE: %w", err)
	}
	if c.Orders.CodeMaxAttempts < 1 {
		return errors.New("ORDER_CODE_MAX_ATTEMPTS must be at least 1")
	}
	switch c.Gateway.Provider {
	case "efi", "mercadopago", "none":
	default:
		return fmt.Errorf("PAYMENT_PROVIDER %q is not supported", c.Gateway.Provider)
	}
	switch c.Auth.Mode {
	case "token", "jwt":
	default:
		return fmt.Errorf("ADMIN_AUTH_MODE %q is not supported", c.Auth.Mode)
	}
	switch c.Secrets.Backend {
	case "env", "local", "aws", "vault":
	default:
		return fmt.Errorf("SECRETS_BACKEND %q is not supported", c.Secrets.Backend)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CodeLocation returns the time zone order codes are dated in
func (c *OrdersConfig) CodeLocation() *time.Location {
	loc, err := time.LoadLocation(c.CodeTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the HTTP listen address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
