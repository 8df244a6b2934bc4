package ports

import (
	"context"
	"net/url"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateChargeRequest contains parameters for opening a charge on an order
type CreateChargeRequest struct {
	Code         string
	CardToken    string // card only
	Installments int    // card only, defaults to 1
}

// ChargeResponse is what the customer needs to pay a charge
type ChargeResponse struct {
	Order         *domain.Order `json:"order"`
	ChargeID      string        `json:"charge_id"`
	Status        string        `json:"status"`
	PixCopyPaste  string        `json:"pix_copy_paste,omitempty"`
	QRCodeImage   string        `json:"qr_code_image,omitempty"`
	BoletoURL     string        `json:"boleto_url,omitempty"`
	BoletoBarcode string        `json:"boleto_barcode,omitempty"`
}

// PaymentStatusResponse is the reconciled state of an order's payment
type PaymentStatusResponse struct {
	Code          string               `json:"code"`
	ChargeID      string               `json:"charge_id,omitempty"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	GatewayStatus string               `json:"gateway_status,omitempty"`
}

// WebhookNotification is a raw provider notification
type WebhookNotification struct {
	Query    url.Values
	Provider string
	Body     []byte
}

// WebhookResult summarizes what a notification did; it is logged, never returned to the provider
type WebhookResult struct {
	Results  []*domain.ReconciliationResult
	Ignored  string
	Received int
	Failed   int
}

// RefundOrderRequest contains parameters for refunding an order
type RefundOrderRequest struct {
	Amount  *decimal.Decimal // nil refunds the total
	Reason  string
	OrderID int64
}

// RefundResponse is the outcome of a refund
type RefundResponse struct {
	Order    *domain.Order   `json:"order"`
	RefundID string          `json:"refund_id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
}

// PaymentService defines the business operations for payments
type PaymentService interface {
	// CreateCharge opens a gateway charge for the order's total
	CreateCharge(ctx context.Context, req *CreateChargeRequest) (*ChargeResponse, error)

	// PaymentStatus queries the gateway and reconciles before answering
	PaymentStatus(ctx context.Context, code string) (*PaymentStatusResponse, error)

	// HandleWebhook resolves a notification to charges and reconciles each one.
	// It never fails; problems are logged and reported in the result.
	HandleWebhook(ctx context.Context, n *WebhookNotification) *WebhookResult

	// Refund returns money through the gateway and cancels the order
	Refund(ctx context.Context, req *RefundOrderRequest) (*RefundResponse, error)
}
