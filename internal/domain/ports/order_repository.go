package ports

import (
	"context"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentStateUpdate is the set of fields a reconciliation may write.
// ExpectedPaymentStatus guards the update: the row is written only when its
// current payment status still equals it.
type PaymentStateUpdate struct {
	ChargeID              *string
	RawData               []byte
	ExpectedPaymentStatus domain.PaymentStatus
	Status                domain.OrderStatus
	PaymentStatus         domain.PaymentStatus
	OrderID               int64
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Create inserts an order and fills in ID and timestamps.
	// Returns a CONFLICT_RETRYABLE error when the code is already taken.
	Create(ctx context.Context, tx DBTX, order *domain.Order) error

	// GetByID retrieves an order by its numeric ID
	GetByID(ctx context.Context, db DBTX, id int64) (*domain.Order, error)

	// GetByCode retrieves an order by its human-readable code
	GetByCode(ctx context.Context, db DBTX, code string) (*domain.Order, error)

	// GetByIDForUpdate reads an order and holds a row lock until tx ends
	GetByIDForUpdate(ctx context.Context, tx DBTX, id int64) (*domain.Order, error)

	// GetByChargeID retrieves the order holding a gateway charge reference
	GetByChargeID(ctx context.Context, db DBTX, chargeID string) (*domain.Order, error)

	// FindLatestNewByTotal returns the most recently created order in status
	// new whose total equals amount.
	FindLatestNewByTotal(ctx context.Context, db DBTX, total decimal.Decimal) (*domain.Order, error)

	// UpdatePaymentState conditionally writes status, payment status and
	// charge data. Returns false when the expected payment status no longer holds.
	UpdatePaymentState(ctx context.Context, tx DBTX, update PaymentStateUpdate) (bool, error)

	// UpdateStatus conditionally moves an order from expected to the new status,
	// setting paymentStatus when non-nil.
	UpdateStatus(ctx context.Context, tx DBTX, id int64, expected, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (bool, error)

	// SetCharge records the active gateway charge and its raw data
	SetCharge(ctx context.Context, tx DBTX, id int64, chargeID string, rawData []byte) error

	// UpdateRawData stores the last-seen provider payload
	UpdateRawData(ctx context.Context, tx DBTX, id int64, rawData []byte) error

	// Delete removes an order row
	Delete(ctx context.Context, tx DBTX, id int64) error

	// MaxSequence returns the highest numeric suffix among codes starting with prefix
	MaxSequence(ctx context.Context, db DBTX, prefix string) (int, error)

	// LockCodePrefix serializes code generation for prefix until tx ends
	LockCodePrefix(ctx context.Context, tx DBTX, prefix string) error

	// ListByPhone returns up to limit orders, newest first, whose recipient
	// phone contains digits once formatting is stripped
	ListByPhone(ctx context.Context, db DBTX, digits string, limit int) ([]*domain.Order, error)
}

// StatusLogRepository defines the interface for the append-only status log
type StatusLogRepository interface {
	// Append inserts an entry and fills in ID and CreatedAt
	Append(ctx context.Context, tx DBTX, entry *domain.StatusLogEntry) error

	// ListByOrder returns the entries of an order oldest first
	ListByOrder(ctx context.Context, db DBTX, orderID int64) ([]*domain.StatusLogEntry, error)

	// DeleteByOrder removes every entry of an order; only used by order deletion
	DeleteByOrder(ctx context.Context, tx DBTX, orderID int64) error
}
