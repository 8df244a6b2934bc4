package ports

import (
	"context"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest contains parameters for creating an order
type CreateOrderRequest struct {
	Total         *decimal.Decimal // defaults to BasketPrice*Quantity - Discount
	Discount      *decimal.Decimal
	Customer      domain.Customer
	Delivery      domain.Delivery
	BasketType    string
	BasketName    string
	PaymentMethod string
	BasketPrice   decimal.Decimal
	Quantity      int
}

// TransitionStatusRequest contains parameters for an admin status change
type TransitionStatusRequest struct {
	Status  string
	Note    string
	OrderID int64
}

// OrderService defines the business operations for orders
type OrderService interface {
	// CreateOrder validates the request, assigns a code and stores the order
	// together with its creation log entry
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error)

	// GetOrder returns an order and its status history by code
	GetOrder(ctx context.Context, code string) (*domain.OrderWithHistory, error)

	// GetOrderByID returns an order and its status history by ID
	GetOrderByID(ctx context.Context, id int64) (*domain.OrderWithHistory, error)

	// TransitionStatus sets a new fulfillment status, applying the payment side effects
	TransitionStatus(ctx context.Context, req *TransitionStatusRequest) (*domain.Order, error)

	// DeleteOrder purges an order and its whole status log
	DeleteOrder(ctx context.Context, id int64) error

	// ListByPhone returns the latest orders whose recipient phone contains
	// the digits of phone
	ListByPhone(ctx context.Context, phone string) ([]*domain.OrderSummary, error)
}
