package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "order_service",
		Name:      "shutdown_duration_seconds",
		Help:      "Total time taken to shutdown gracefully",
		Buckets:   []float64{1, 5, 10, 15, 20, 25, 30},
	})

	componentShutdownDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "order_service",
		Name:      "component_shutdown_duration_seconds",
		Help:      "Time taken to shutdown individual components",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 20, 25, 30},
	}, []string{"component"})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_service",
		Name:      "shutdown_errors_total",
		Help:      "Total number of shutdown errors by component",
	}, []string{"component"})
)

// ShutdownFunc represents a function that shuts down a component
type ShutdownFunc func(context.Context) error

// Component represents a registered shutdown component
type Component struct {
	ShutdownFunc ShutdownFunc
	Name         string
}

// Manager coordinates graceful shutdown of all service components.
// Components shut down one at a time in reverse registration order, sharing
// one deadline, so listeners stop before the relay and the relay before the pool.
type Manager struct {
	logger     *zap.Logger
	components []Component
	mu         sync.Mutex
	timeout    time.Duration
}

// NewManager creates a new shutdown manager
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a shutdown function to be called during graceful shutdown
func (sm *Manager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.components = append(sm.components, Component{Name: name, ShutdownFunc: fn})
	sm.logger.Debug("Registered shutdown component",
		zap.String("component", name),
		zap.Int("registration_order", len(sm.components)),
	)
}

// RegisterHTTPServer registers anything with a Shutdown(ctx) method
func (sm *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	sm.Register(name, server.Shutdown)
}

// RegisterCloser registers a component with a Close() error method
func (sm *Manager) RegisterCloser(name string, closer interface{ Close() error }) {
	sm.Register(name, func(ctx context.Context) error {
		return closer.Close()
	})
}

// RegisterNoErr registers a shutdown function that cannot fail
func (sm *Manager) RegisterNoErr(name string, fn func()) {
	sm.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts everything down
func (sm *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	sm.logger.Info("Received shutdown signal - initiating graceful shutdown",
		zap.String("signal", sig.String()),
		zap.Duration("timeout", sm.timeout),
	)
	sm.Shutdown()
}

// Shutdown runs every registered component and returns the failures by name
func (sm *Manager) Shutdown() map[string]error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	sm.mu.Lock()
	components := make([]Component, len(sm.components))
	copy(components, sm.components)
	sm.mu.Unlock()

	failures := make(map[string]error)
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		compStart := time.Now()

		if err := comp.ShutdownFunc(ctx); err != nil {
			failures[comp.Name] = err
			shutdownErrors.WithLabelValues(comp.Name).Inc()
			sm.logger.Error("Component shutdown failed",
				zap.String("component", comp.Name),
				zap.Error(err),
			)
		} else {
			sm.logger.Info("Component shut down",
				zap.String("component", comp.Name),
				zap.Duration("elapsed", time.Since(compStart)),
			)
		}
		componentShutdownDuration.WithLabelValues(comp.Name).Observe(time.Since(compStart).Seconds())
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())
	if len(failures) > 0 {
		sm.logger.Error("Graceful shutdown completed with errors",
			zap.Int("error_count", len(failures)),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		sm.logger.Info("Graceful shutdown completed", zap.Duration("elapsed", elapsed))
	}
	return failures
}
