package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConflictBackoff_Defaults(t *testing.T) {
	backoff := ConflictBackoff(0)

	assert.Equal(t, 25*time.Millisecond, backoff.BaseDelay)
	assert.Equal(t, 250*time.Millisecond, backoff.MaxDelay)
	assert.Equal(t, 2.0, backoff.Multiplier)
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{6, 6400 * time.Millisecond},
		{7, 10 * time.Second}, // 12.8s capped
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_WithJitter(t *testing.T) {
	backoff := RelayBackoff()

	for i := 0; i < 100; i++ {
		delay := backoff.NextDelay(1)
		assert.GreaterOrEqual(t, delay, 1800*time.Millisecond)
		assert.LessOrEqual(t, delay, 2200*time.Millisecond)
	}
}

func TestFixedBackoff(t *testing.T) {
	backoff := &FixedBackoff{Delay: 5 * time.Second}
	assert.Equal(t, 5*time.Second, backoff.NextDelay(0))
	assert.Equal(t, 5*time.Second, backoff.NextDelay(100))
}

func TestSleep(t *testing.T) {
	t.Run("waits", func(t *testing.T) {
		start := time.Now()
		assert.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("returns early on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
	})
}
