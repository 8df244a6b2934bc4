package fixtures

import (
	"time"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderBuilder provides fluent API for building test orders.
type OrderBuilder struct {
	order *domain.Order
}

// NewOrder creates a pix order for 150.00 in status new.
func NewOrder() *OrderBuilder {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	return &OrderBuilder{
		order: &domain.Order{
			Code:          "AC-20250314-0001",
			BasketType:    "breakfast",
			BasketName:    "Cesta Café da Manhã",
			BasketPrice:   decimal.RequireFromString("150.00"),
			Quantity:      1,
			PaymentMethod: domain.PaymentMethodPix,
			PaymentStatus: domain.PaymentStatusPending,
			Status:        domain.OrderStatusNew,
			Discount:      decimal.Zero,
			Total:         decimal.RequireFromString("150.00"),
			Customer: domain.Customer{
				Name:     "Maria Souza",
				Email:    "maria@example.com",
				Phone:    "47999990000",
				Document: "12345678909",
			},
			Delivery: domain.Delivery{
				Address:        "Rua XV de Novembro",
				Number:         "100",
				Neighborhood:   "Centro",
				City:           "Araquari",
				State:          "SC",
				RecipientName:  "João Souza",
				RecipientPhone: "47988887777",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *OrderBuilder) WithID(id int64) *OrderBuilder {
	b.order.ID = id
	return b
}

func (b *OrderBuilder) WithCode(code string) *OrderBuilder {
	b.order.Code = code
	return b
}

// WithMethod sets the payment method and the matching initial status.
func (b *OrderBuilder) WithMethod(m domain.PaymentMethod) *OrderBuilder {
	b.order.PaymentMethod = m
	b.order.Status = domain.InitialStatus(m)
	return b
}

func (b *OrderBuilder) WithStatus(s domain.OrderStatus) *OrderBuilder {
	b.order.Status = s
	return b
}

func (b *OrderBuilder) WithPaymentStatus(s domain.PaymentStatus) *OrderBuilder {
	b.order.PaymentStatus = s
	return b
}

func (b *OrderBuilder) WithTotal(total string) *OrderBuilder {
	b.order.Total = decimal.RequireFromString(total)
	b.order.BasketPrice = b.order.Total
	return b
}

func (b *OrderBuilder) WithCharge(chargeID string) *OrderBuilder {
	b.order.GatewayChargeID = &chargeID
	return b
}

func (b *OrderBuilder) WithRecipientPhone(phone string) *OrderBuilder {
	b.order.Delivery.RecipientPhone = phone
	return b
}

func (b *OrderBuilder) WithCreatedAt(t time.Time) *OrderBuilder {
	b.order.CreatedAt = t
	b.order.UpdatedAt = t
	return b
}

func (b *OrderBuilder) Build() *domain.Order {
	o := *b.order
	return &o
}
