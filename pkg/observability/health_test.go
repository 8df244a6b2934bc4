package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthChecker_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		status := NewHealthChecker(fakePinger{}).Check(context.Background())
		assert.True(t, status.Healthy())
		assert.Equal(t, "healthy", status.Checks["database"])
	})

	t.Run("database down", func(t *testing.T) {
		status := NewHealthChecker(fakePinger{err: errors.New("refused")}).Check(context.Background())
		assert.False(t, status.Healthy())
		assert.Contains(t, status.Checks["database"], "refused")
	})

	t.Run("no database", func(t *testing.T) {
		status := NewHealthChecker(nil).Check(context.Background())
		assert.True(t, status.Healthy())
		assert.Equal(t, "not configured", status.Checks["database"])
	})
}

func TestMetricsHandler_Endpoints(t *testing.T) {
	h := NewMetricsHandler(NewHealthChecker(fakePinger{err: errors.New("down")}))

	tests := []struct {
		path   string
		status int
	}{
		{"/metrics", http.StatusOK},
		{"/health", http.StatusServiceUnavailable},
		{"/ready", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
