package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the request path
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (30s)
//	  ↓
//	Gateway call (15s)
//	  ↓
//	Database statement (5s)
//
// Webhook handling gets its own budget because the provider retries on slow answers.
type TimeoutConfig struct {
	HTTPHandler time.Duration
	Gateway     time.Duration
	Webhook     time.Duration
	Database    time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		Gateway:     15 * time.Second,
		Webhook:     20 * time.Second,
		Database:    5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 3 * time.Second,
		Gateway:     1 * time.Second,
		Webhook:     2 * time.Second,
		Database:    500 * time.Millisecond,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// GatewayContext creates a context for a single payment gateway call
func (tc *TimeoutConfig) GatewayContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Gateway)
}

// WebhookContext creates a context for processing one provider notification.
// It is detached from the inbound request so a dropped connection does not
// abort a reconciliation half way.
func (tc *TimeoutConfig) WebhookContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.Webhook)
}

// DatabaseContext creates a context for a database statement
func (tc *TimeoutConfig) DatabaseContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Database)
}
