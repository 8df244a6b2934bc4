package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Shutdown()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// different port, same host shares the bucket; another host does not
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:6000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req.RemoteAddr = "10.0.0.2:6000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_CleanupEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Shutdown()

	rl.getLimiter("a")
	rl.cleanup(time.Now().Add(time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.limiters)
}
