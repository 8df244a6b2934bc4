package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// ChargeRequest represents a request to open a charge for an order
type ChargeRequest struct {
	Amount       decimal.Decimal
	DueDate      *time.Time // boleto only
	Customer     domain.Customer
	Address      domain.Delivery // billing address for boletos
	Method       domain.PaymentMethod
	OrderCode    string
	Description  string
	CardToken    string // card only
	Installments int    // card only
}

// ChargeRef is the gateway's answer to a charge creation
type ChargeRef struct {
	RawData       []byte
	ChargeID      string
	Status        domain.NormalizedStatus
	StatusDetail  string
	PixCopyPaste  string // PIX "copia e cola" payload
	QRCodeImage   string // base64 PNG
	BoletoURL     string
	BoletoBarcode string
}

// PaymentState is the authoritative state of a charge as read from the gateway
type PaymentState struct {
	Amount            *decimal.Decimal
	RawData           []byte
	ChargeID          string
	Status            domain.NormalizedStatus
	RawStatus         string
	StatusDetail      string
	ExternalReference string
}

// RefundRequest represents a request to refund a charge.
// A nil Amount refunds the full charge.
type RefundRequest struct {
	Amount   *decimal.Decimal
	ChargeID string
	Method   domain.PaymentMethod
	Reason   string
}

// RefundResult represents the outcome of a refund
type RefundResult struct {
	Amount   decimal.Decimal
	RawData  []byte
	RefundID string
	Status   string
}

// PaymentGateway is the provider-agnostic view of a payment processor
type PaymentGateway interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// CreateCharge opens a charge for an order
	CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeRef, error)

	// QueryPayment reads the current state of a charge
	QueryPayment(ctx context.Context, chargeID string) (*PaymentState, error)

	// Refund returns money for a charge
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
}

// WebhookDecoder extracts charge identifiers from a provider notification.
// Implementations may call the provider to resolve opaque notification tokens.
type WebhookDecoder interface {
	DecodeWebhook(ctx context.Context, body []byte, query url.Values) ([]string, error)
}
