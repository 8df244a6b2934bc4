package gateway

import (
	"context"
	"net/url"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
)

// Unconfigured stands in for a provider whose credentials are missing.
// Every call fails with GATEWAY_NOT_CONFIGURED.
type Unconfigured struct {
	name string
}

var (
	_ ports.PaymentGateway = (*Unconfigured)(nil)
	_ ports.WebhookDecoder = (*Unconfigured)(nil)
)

// NewUnconfigured creates a placeholder for provider name
func NewUnconfigured(name string) *Unconfigured {
	return &Unconfigured{name: name}
}

func (u *Unconfigured) Name() string { return u.name }

func (u *Unconfigured) err() error {
	return domain.NewDomainError(domain.ErrorCodeGatewayNotConfigured, "payment gateway not configured").
		WithDetail("provider", u.name)
}

func (u *Unconfigured) CreateCharge(context.Context, *ports.ChargeRequest) (*ports.ChargeRef, error) {
	return nil, u.err()
}

func (u *Unconfigured) QueryPayment(context.Context, string) (*ports.PaymentState, error) {
	return nil, u.err()
}

func (u *Unconfigured) Refund(context.Context, *ports.RefundRequest) (*ports.RefundResult, error) {
	return nil, u.err()
}

func (u *Unconfigured) DecodeWebhook(context.Context, []byte, url.Values) ([]string, error) {
	return nil, u.err()
}
