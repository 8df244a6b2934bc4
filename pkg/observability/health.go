package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Status    string            `json:"status"`
}

// Healthy reports whether every check passed
func (s HealthStatus) Healthy() bool {
	return s.Status == "healthy"
}

// HealthChecker manages health checks for the service
type HealthChecker struct {
	db Pinger
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db}
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	if h.db != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.db.Ping(dbCtx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}
