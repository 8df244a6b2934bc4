package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewMetricsHandler builds the mux served on the metrics port
func NewMetricsHandler(healthChecker *HealthChecker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if healthChecker != nil {
		mux.HandleFunc("/health", healthChecker.HealthHandler())
	}

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker != nil && !healthChecker.Check(r.Context()).Healthy() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

// StartMetricsServer starts an HTTP server for Prometheus metrics and health checks
func StartMetricsServer(port int, healthChecker *HealthChecker, logger *zap.Logger) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMetricsHandler(healthChecker),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return server
}

// ShutdownMetricsServer gracefully shuts down the metrics server
func ShutdownMetricsServer(ctx context.Context, server *http.Server) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
