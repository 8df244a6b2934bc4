// Package app wires configuration into the order and payment services.
// The server and the admin CLI build the same graph through it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/order-service/internal/adapters/database"
	"github.com/kevin07696/order-service/internal/adapters/gateway/providers"
	"github.com/kevin07696/order-service/internal/adapters/postgres"
	"github.com/kevin07696/order-service/internal/adapters/secrets"
	"github.com/kevin07696/order-service/internal/config"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/services/events"
	orderService "github.com/kevin07696/order-service/internal/services/order"
	paymentService "github.com/kevin07696/order-service/internal/services/payment"
	"github.com/kevin07696/order-service/internal/services/reconciliation"
	settingsService "github.com/kevin07696/order-service/internal/services/settings"
	"github.com/kevin07696/order-service/pkg/resilience"
	"github.com/kevin07696/order-service/pkg/timeutil"
	"go.uber.org/zap"
)

// App holds the wired services and the adapters behind them
type App struct {
	Database *database.PostgreSQLAdapter
	DB       ports.DBPort
	Outbox   ports.OutboxRepository
	Gateway  ports.PaymentGateway
	Orders   *orderService.Service
	Payments *paymentService.Service
	Settings *settingsService.Service
}

// ResolveSecrets fills empty secret-bearing fields of cfg from the configured backend
func ResolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	mgr, err := secrets.New(ctx, cfg.Secrets, logger)
	if err != nil {
		return fmt.Errorf("secret manager: %w", err)
	}
	return secrets.Resolve(ctx, mgr, cfg.Secrets.Prefix, logger, secrets.ConfigBindings(cfg)...)
}

// New connects to the database and builds every service. Secrets must
// already be resolved. Close releases the pool.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbCfg := database.DefaultPostgreSQLConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	dbAdapter, err := database.NewPostgreSQLAdapter(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	gateway, err := providers.New(cfg, logger)
	if err != nil {
		dbAdapter.Close()
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	db := postgres.NewDBExecutor(dbAdapter.Pool())
	orders := postgres.NewOrderRepository()
	statusLog := postgres.NewStatusLogRepository()
	outbox := postgres.NewOutboxRepository()
	recorder := events.NewRecorder(statusLog, outbox, cfg.Kafka.Topic)

	loc := cfg.Orders.CodeLocation()
	codes := orderService.NewCodeGenerator(orders, cfg.Orders.CodePrefix, loc, timeutil.Now)
	orderSvc := orderService.NewService(db, orders, statusLog, recorder, codes, orderService.Config{
		DefaultCity:     cfg.Orders.DefaultCity,
		DefaultState:    cfg.Orders.DefaultState,
		MaxAttempts:     cfg.Orders.CodeMaxAttempts,
		ConflictBackoff: cfg.Orders.ConflictBackoff,
	}, logger)

	engine := reconciliation.NewEngine(db, orders, recorder, reconciliation.Config{
		AmountFallback:  cfg.Orders.AmountFallback,
		ConflictBackoff: cfg.Orders.ConflictBackoff,
	}, logger)

	timeouts := resilience.DefaultTimeoutConfig()
	if cfg.Gateway.Timeout > 0 {
		timeouts.Gateway = cfg.Gateway.Timeout
	}
	paymentSvc := paymentService.NewService(db, orders, gateway, engine, recorder, timeouts, loc, logger)
	settingsSvc := settingsService.NewService(db, postgres.NewSettingsRepository(), logger)

	return &App{
		Database: dbAdapter,
		DB:       db,
		Outbox:   outbox,
		Gateway:  gateway,
		Orders:   orderSvc,
		Payments: paymentSvc,
		Settings: settingsSvc,
	}, nil
}

// StartPoolMonitoring publishes pool gauges until ctx is done
func (a *App) StartPoolMonitoring(ctx context.Context) {
	a.Database.StartPoolMonitoring(ctx, 30*time.Second)
}

// Close releases the database pool
func (a *App) Close() {
	a.Database.Close()
}
