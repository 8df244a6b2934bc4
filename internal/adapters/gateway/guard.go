// Package gateway holds what every payment provider adapter shares: the
// guard decorator, the unconfigured placeholder and HTTP status mapping.
package gateway

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/resilience"
	"go.uber.org/zap"
)

// Operation names used in metrics
const (
	OpCreateCharge   = "create_charge"
	OpQueryPayment   = "query_payment"
	OpRefund         = "refund"
	OpWebhookResolve = "webhook_resolve"
)

var (
	_ ports.PaymentGateway = (*Guard)(nil)
	_ ports.WebhookDecoder = (*Guard)(nil)
)

// GuardConfig configures the guard decorator
type GuardConfig struct {
	Timeout          time.Duration
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// Guard bounds every provider call with a timeout and a circuit breaker,
// records metrics and maps failures onto GATEWAY_* domain errors.
type Guard struct {
	inner    ports.PaymentGateway
	breaker  *resilience.CircuitBreaker
	timeouts *resilience.TimeoutConfig
	logger   *zap.Logger
}

// NewGuard wraps inner
func NewGuard(inner ports.PaymentGateway, cfg GuardConfig, logger *zap.Logger) *Guard {
	name := inner.Name()
	timeouts := resilience.DefaultTimeoutConfig()
	if cfg.Timeout > 0 {
		timeouts.Gateway = cfg.Timeout
	}

	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold > 0 {
		breakerCfg.MaxFailures = cfg.FailureThreshold
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	// a declined card, an unknown charge or missing credentials say nothing about provider health
	breakerCfg.IsFailure = func(err error) bool {
		if domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured) {
			return false
		}
		return domain.GetErrorCode(err) == "" || domain.IsGatewayError(err)
	}
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		observability.RecordCircuitState(name, int(to))
		logger.Warn("Payment gateway circuit changed state",
			zap.String("provider", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	return &Guard{
		inner:    inner,
		breaker:  resilience.NewCircuitBreaker(breakerCfg),
		timeouts: timeouts,
		logger:   logger,
	}
}

// Name implements ports.PaymentGateway
func (g *Guard) Name() string {
	return g.inner.Name()
}

// CreateCharge implements ports.PaymentGateway
func (g *Guard) CreateCharge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	var ref *ports.ChargeRef
	err := g.do(ctx, OpCreateCharge, func(ctx context.Context) error {
		var err error
		ref, err = g.inner.CreateCharge(ctx, req)
		return err
	})
	return ref, err
}

// QueryPayment implements ports.PaymentGateway
func (g *Guard) QueryPayment(ctx context.Context, chargeID string) (*ports.PaymentState, error) {
	var state *ports.PaymentState
	err := g.do(ctx, OpQueryPayment, func(ctx context.Context) error {
		var err error
		state, err = g.inner.QueryPayment(ctx, chargeID)
		return err
	})
	return state, err
}

// Refund implements ports.PaymentGateway
func (g *Guard) Refund(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	var result *ports.RefundResult
	err := g.do(ctx, OpRefund, func(ctx context.Context) error {
		var err error
		result, err = g.inner.Refund(ctx, req)
		return err
	})
	return result, err
}

// DecodeWebhook implements ports.WebhookDecoder when the wrapped provider does
func (g *Guard) DecodeWebhook(ctx context.Context, body []byte, query url.Values) ([]string, error) {
	decoder, ok := g.inner.(ports.WebhookDecoder)
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "provider does not accept webhooks")
	}
	var ids []string
	err := g.do(ctx, OpWebhookResolve, func(ctx context.Context) error {
		var err error
		ids, err = decoder.DecodeWebhook(ctx, body, query)
		return err
	})
	return ids, err
}

func (g *Guard) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := g.timeouts.GatewayContext(ctx)
	defer cancel()

	start := time.Now()
	err := g.breaker.Call(func() error { return fn(ctx) })
	err = g.mapError(ctx, err)

	observability.RecordGatewayRequest(g.Name(), op, resultLabel(err), time.Since(start))
	if err != nil {
		g.logger.Warn("Payment gateway call failed",
			zap.String("provider", g.Name()),
			zap.String("operation", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return err
}

func (g *Guard) mapError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment gateway circuit open", err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.WrapError(domain.ErrorCodeGatewayTimeout, "payment gateway timed out", err)
	case domain.GetErrorCode(err) != "":
		return err
	default:
		return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment gateway call failed", err)
	}
}

func resultLabel(err error) string {
	switch domain.GetErrorCode(err) {
	case "":
		return "success"
	case domain.ErrorCodeGatewayTimeout:
		return "timeout"
	case domain.ErrorCodeGatewayUnavailable:
		var de *domain.DomainError
		if errors.As(err, &de) && (errors.Is(de.Err, resilience.ErrCircuitOpen) || errors.Is(de.Err, resilience.ErrTooManyRequests)) {
			return "circuit_open"
		}
		return "error"
	default:
		return "rejected"
	}
}
