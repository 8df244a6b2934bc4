package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kevin07696/order-service/internal/adapters/kafka"
	"github.com/kevin07696/order-service/internal/app"
	"github.com/kevin07696/order-service/internal/auth"
	"github.com/kevin07696/order-service/internal/config"
	httphandlers "github.com/kevin07696/order-service/internal/handlers/http"
	"github.com/kevin07696/order-service/internal/services/events"
	"github.com/kevin07696/order-service/pkg/middleware"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/shutdown"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger depends on config; fall back to a production one to report why
		zap.Must(zap.NewProduction()).Fatal("Invalid configuration", zap.Error(err))
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting order service",
		zap.String("environment", cfg.Environment),
		zap.String("payment_provider", cfg.Gateway.Provider),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.ResolveSecrets(ctx, cfg, logger); err != nil {
		logger.Fatal("Failed to resolve secrets", zap.Error(err))
	}

	authenticator, err := auth.New(cfg.Auth.Mode, cfg.Auth.AdminToken, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		logger.Fatal("Failed to initialize admin authentication", zap.Error(err))
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	application.StartPoolMonitoring(ctx)

	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	// components shut down in reverse order: the pool goes last
	shutdownMgr.RegisterNoErr("database", application.Close)

	// Outbox relay
	publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, logger)
	switch {
	case errors.Is(err, kafka.ErrDisabled):
		logger.Warn("KAFKA_BROKERS not set, outbox relay disabled; events accumulate in the outbox table")
	case err != nil:
		logger.Fatal("Failed to initialize Kafka publisher", zap.Error(err))
	default:
		relayCtx, stopRelay := context.WithCancel(ctx)
		relay := events.NewRelay(application.DB, application.Outbox, publisher, events.RelayConfig{
			PollInterval: cfg.Kafka.PollInterval,
			BatchSize:    cfg.Kafka.BatchSize,
		}, logger)
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
		shutdownMgr.RegisterCloser("kafka-publisher", publisher)
		shutdownMgr.Register("outbox-relay", func(ctx context.Context) error {
			stopRelay()
			select {
			case <-relayDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	// Metrics and health
	healthChecker := observability.NewHealthChecker(application.Database)
	metricsServer := observability.StartMetricsServer(cfg.Server.MetricsPort, healthChecker, logger)
	shutdownMgr.Register("metrics-server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	grpcHealth, err := startHealthServer(ctx, cfg.Server.HealthGRPCPort, healthChecker, logger)
	if err != nil {
		logger.Fatal("Failed to start gRPC health server", zap.Error(err))
	}
	shutdownMgr.RegisterNoErr("grpc-health", grpcHealth.GracefulStop)

	// HTTP API
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)

	router := httphandlers.NewRouter(httphandlers.RouterConfig{
		Orders:        application.Orders,
		Payments:      application.Payments,
		Settings:      application.Settings,
		Authenticator: authenticator,
		RateLimiter:   rateLimiter,
		Logger:        logger,
		Development:   !cfg.IsProduction(),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)

	shutdownMgr.WaitForShutdown()
	logger.Info("Order service stopped")
}

// initLogger builds a production logger in production and a development one otherwise
func initLogger(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Logger.Development || !cfg.IsProduction() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
