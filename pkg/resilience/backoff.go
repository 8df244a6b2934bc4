package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines retry backoff behavior
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64 // 0.0-1.0, fraction of the delay added or removed at random
}

// ConflictBackoff spaces out retries after a unique-code collision or a lost
// row race. Delays stay short because the caller is an HTTP request.
//
//   - Attempt 0: ~25ms
//   - Attempt 1: ~50ms
//   - Attempt 2: ~100ms
//   - Attempt 3+: capped at 250ms
func ConflictBackoff(base time.Duration) *ExponentialBackoff {
	if base <= 0 {
		base = 25 * time.Millisecond
	}
	return &ExponentialBackoff{
		BaseDelay:  base,
		MaxDelay:   10 * base,
		Multiplier: 2.0,
		Jitter:     0.5,
	}
}

// RelayBackoff is used by the outbox relay while the broker is unreachable.
//
//   - Attempt 0: ~1s
//   - Attempt 1: ~2s
//   - Attempt 4+: capped at 30s
func RelayBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay calculates the delay for the given attempt number (0-indexed)
//
// The delay is calculated as: BaseDelay * (Multiplier ^ attempt) ± jitter
// The result is capped at MaxDelay to prevent excessive delays
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	jitterAmount := delay * eb.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterAmount

	finalDelay := time.Duration(delay + jitter)
	if finalDelay < 0 {
		finalDelay = eb.BaseDelay
	}
	return finalDelay
}

// FixedBackoff implements a fixed delay backoff
type FixedBackoff struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay regardless of attempt number
func (fb *FixedBackoff) NextDelay(attempt int) time.Duration {
	return fb.Delay
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
