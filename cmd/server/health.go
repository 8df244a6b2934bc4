package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kevin07696/order-service/pkg/observability"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const healthCheckInterval = 10 * time.Second

// startHealthServer serves grpc.health.v1 on port. The overall status follows
// the database check until ctx is cancelled.
func startHealthServer(ctx context.Context, port int, checker *observability.HealthChecker, logger *zap.Logger) (*grpc.Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on %d: %w", port, err)
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		loggingInterceptor(logger),
		recoveryInterceptor(logger),
	))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	go watchHealth(ctx, hs, checker, logger)
	go func() {
		logger.Info("gRPC health server listening", zap.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil {
			logger.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	return server, nil
}

func watchHealth(ctx context.Context, hs *health.Server, checker *observability.HealthChecker, logger *zap.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		next := healthpb.HealthCheckResponse_NOT_SERVING
		if checker.Check(checkCtx).Healthy() {
			next = healthpb.HealthCheckResponse_SERVING
		}
		cancel()

		if next != last {
			logger.Info("Health status changed", zap.String("status", next.String()))
			hs.SetServingStatus("", next)
			last = next
		}

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
		} else {
			logger.Debug("gRPC request",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)))
		}
		return resp, err
	}
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
