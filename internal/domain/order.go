package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusNew         OrderStatus = "new"
	OrderStatusUnderReview OrderStatus = "under_review" // long-term boleto awaiting credit review
	OrderStatusConfirmed   OrderStatus = "confirmed"
	OrderStatusSeparation  OrderStatus = "separation"
	OrderStatusReady       OrderStatus = "ready"
	OrderStatusEnRoute     OrderStatus = "en_route"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
	OrderStatusApproved    OrderStatus = "approved" // review outcome
	OrderStatusRejected    OrderStatus = "rejected" // review outcome
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusNew:         {},
	OrderStatusUnderReview: {},
	OrderStatusConfirmed:   {},
	OrderStatusSeparation:  {},
	OrderStatusReady:       {},
	OrderStatusEnRoute:     {},
	OrderStatusDelivered:   {},
	OrderStatusCancelled:   {},
	OrderStatusApproved:    {},
	OrderStatusRejected:    {},
}

// IsValid reports whether s belongs to the closed status set
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// IsTerminal returns true for delivered and cancelled orders
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus validates a raw status string
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", NewDomainError(ErrorCodeValidationInvalidStatus, "invalid order status").
			WithDetail("status", raw)
	}
	return s, nil
}

// PaymentMethod is how the customer pays, fixed at creation
type PaymentMethod string

const (
	PaymentMethodPix         PaymentMethod = "pix"
	PaymentMethodBoletoShort PaymentMethod = "boleto_short"
	PaymentMethodBoletoLong  PaymentMethod = "boleto_long"
	PaymentMethodCard        PaymentMethod = "card"
)

// ParsePaymentMethod accepts the canonical names plus the legacy aliases
// "boleto" (short term) and "boleto30" (long term).
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pix":
		return PaymentMethodPix, nil
	case "boleto_short", "boleto":
		return PaymentMethodBoletoShort, nil
	case "boleto_long", "boleto30":
		return PaymentMethodBoletoLong, nil
	case "card", "cartao", "credit_card":
		return PaymentMethodCard, nil
	}
	return "", NewDomainError(ErrorCodeValidationFailed, "invalid payment method").
		WithDetail("payment_method", raw)
}

// IsBoleto returns true for both boleto terms
func (m PaymentMethod) IsBoleto() bool {
	return m == PaymentMethodBoletoShort || m == PaymentMethodBoletoLong
}

// BoletoDueDays is the number of days until a boleto for this method expires.
func (m PaymentMethod) BoletoDueDays() int {
	if m == PaymentMethodBoletoLong {
		return 30
	}
	return 3
}

// PaymentStatus tracks the money side of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// InitialStatus returns the status a newly created order starts in.
func InitialStatus(m PaymentMethod) OrderStatus {
	if m == PaymentMethodBoletoLong {
		return OrderStatusUnderReview
	}
	return OrderStatusNew
}

// CoupledPaymentStatus returns the payment status implied by moving an order
// with method m into status s. ok is false when s carries no payment side effect.
func CoupledPaymentStatus(s OrderStatus, m PaymentMethod) (PaymentStatus, bool) {
	switch s {
	case OrderStatusApproved:
		if m == PaymentMethodBoletoLong {
			return PaymentStatusApproved, true
		}
	case OrderStatusRejected:
		return PaymentStatusRejected, true
	case OrderStatusConfirmed:
		return PaymentStatusApproved, true
	}
	return "", false
}

// Delivery holds where and to whom an order is delivered
type Delivery struct {
	Address        string   `json:"address"`
	Number         string   `json:"number"`
	Complement     string   `json:"complement,omitempty"`
	Neighborhood   string   `json:"neighborhood"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	PostalCode     string   `json:"postal_code"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	RecipientName  string   `json:"recipient_name"`
	RecipientPhone string   `json:"recipient_phone"`
	DeliveryDate   string   `json:"delivery_date,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Customer identifies the buyer for gateway charges
type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"` // CPF or CNPJ, digits only
}

// Order is a delivery order and its reconciled payment state
type Order struct {
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	GatewayChargeID *string         `json:"gateway_charge_id,omitempty"`
	GatewayRawData  []byte          `json:"-"`
	Customer        Customer        `json:"customer"`
	Delivery        Delivery        `json:"delivery"`
	Code            string          `json:"code"`
	BasketType      string          `json:"basket_type"`
	BasketName      string          `json:"basket_name"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          OrderStatus     `json:"status"`
	BasketPrice     decimal.Decimal `json:"basket_price"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	ID              int64           `json:"id"`
	Quantity        int             `json:"quantity"`
}

// HasCharge returns true once a gateway charge has been registered
func (o *Order) HasCharge() bool {
	return o.GatewayChargeID != nil && *o.GatewayChargeID != ""
}

// ChargeID safely retrieves the gateway charge reference
func (o *Order) ChargeID() string {
	if o.GatewayChargeID != nil {
		return *o.GatewayChargeID
	}
	return ""
}

// IsPaid returns true when the payment has been approved
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusApproved
}

// OrderSummary is the public view of an order returned by the phone lookup
type OrderSummary struct {
	CreatedAt     time.Time       `json:"created_at"`
	Code          string          `json:"code"`
	BasketName    string          `json:"basket_name"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
}

// Summary returns the public lookup view of the order
func (o *Order) Summary() *OrderSummary {
	return &OrderSummary{
		CreatedAt:     o.CreatedAt,
		Code:          o.Code,
		BasketName:    o.BasketName,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
	}
}
