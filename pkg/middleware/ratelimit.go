package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket per client address, evicting idle clients
type RateLimiter struct {
	limiters        map[string]*clientLimiter
	stopCh          chan struct{}
	rate            rate.Limit
	burst           int
	maxSize         int
	cleanupInterval time.Duration
	mu              sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// requestsPerSecond: max sustained requests per second per client
// burst: max burst size
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters:        make(map[string]*clientLimiter),
		rate:            rate.Limit(requestsPerSecond),
		burst:           burst,
		maxSize:         10000,
		cleanupInterval: 5 * time.Minute,
		stopCh:          make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-rl.cleanupInterval))
		}
	}
}

func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, l := range rl.limiters {
		if l.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// Shutdown stops the cleanup goroutine
func (rl *RateLimiter) Shutdown() {
	close(rl.stopCh)
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[key]; ok {
		l.lastAccess = time.Now()
		return l.limiter
	}

	if len(rl.limiters) >= rl.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, l := range rl.limiters {
			if oldestKey == "" || l.lastAccess.Before(oldest) {
				oldestKey, oldest = k, l.lastAccess
			}
		}
		delete(rl.limiters, oldestKey)
	}

	l := &clientLimiter{
		limiter:    rate.NewLimiter(rl.rate, rl.burst),
		lastAccess: time.Now(),
	}
	rl.limiters[key] = l
	return l.limiter
}

// clientKey strips the port so one client maps to one bucket.
// Behind a proxy, chi's RealIP middleware must run first.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware returns HTTP middleware that applies rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientKey(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
