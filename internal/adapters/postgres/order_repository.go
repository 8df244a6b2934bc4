package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/shopspring/decimal"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

const orderColumns = `id, code, basket_type, basket_name, basket_price, quantity,
	customer_name, customer_email, customer_phone, customer_document,
	address, address_number, complement, neighborhood, city, state, postal_code,
	latitude, longitude, recipient_name, recipient_phone, delivery_date, notes,
	payment_method, payment_status, status, discount, total,
	gateway_charge_id, gateway_raw_data, created_at, updated_at`

// OrderRepository implements ports.OrderRepository with hand-written SQL
type OrderRepository struct{}

// NewOrderRepository creates a new order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                          domain.Order
		basketPrice, discount, tot pgtype.Numeric
		chargeID                   pgtype.Text
		raw                        []byte
		method, payStatus, status  string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.BasketType, &o.BasketName, &basketPrice, &o.Quantity,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Document,
		&o.Delivery.Address, &o.Delivery.Number, &o.Delivery.Complement, &o.Delivery.Neighborhood,
		&o.Delivery.City, &o.Delivery.State, &o.Delivery.PostalCode,
		&o.Delivery.Latitude, &o.Delivery.Longitude, &o.Delivery.RecipientName, &o.Delivery.RecipientPhone,
		&o.Delivery.DeliveryDate, &o.Delivery.Notes,
		&method, &payStatus, &status, &discount, &tot,
		&chargeID, &raw, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.BasketPrice, err = pgNumericToDecimal(basketPrice); err != nil {
		return nil, fmt.Errorf("basket_price: %w", err)
	}
	if o.Discount, err = pgNumericToDecimal(discount); err != nil {
		return nil, fmt.Errorf("discount: %w", err)
	}
	if o.Total, err = pgNumericToDecimal(tot); err != nil {
		return nil, fmt.Errorf("total: %w", err)
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.Status = domain.OrderStatus(status)
	o.GatewayChargeID = textPtr(chargeID)
	o.GatewayRawData = raw
	return &o, nil
}

// Create inserts an order and fills in ID and timestamps
func (r *OrderRepository) Create(ctx context.Context, tx ports.DBTX, o *domain.Order) error {
	const q = `INSERT INTO orders (
		code, basket_type, basket_name, basket_price, quantity,
		customer_name, customer_email, customer_phone, customer_document,
		address, address_number, complement, neighborhood, city, state, postal_code,
		latitude, longitude, recipient_name, recipient_phone, delivery_date, notes,
		payment_method, payment_status, status, discount, total)
	VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26::numeric, $27::numeric)
	RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, q,
		o.Code, o.BasketType, o.BasketName, o.BasketPrice.String(), o.Quantity,
		o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Document,
		o.Delivery.Address, o.Delivery.Number, o.Delivery.Complement, o.Delivery.Neighborhood,
		o.Delivery.City, o.Delivery.State, o.Delivery.PostalCode,
		o.Delivery.Latitude, o.Delivery.Longitude, o.Delivery.RecipientName, o.Delivery.RecipientPhone,
		o.Delivery.DeliveryDate, o.Delivery.Notes,
		string(o.PaymentMethod), string(o.PaymentStatus), string(o.Status),
		o.Discount.String(), o.Total.String(),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("insert order %s: %w", o.Code, err))
	}
	return nil
}

// GetByID retrieves an order by its numeric ID
func (r *OrderRepository) GetByID(ctx context.Context, db ports.DBTX, id int64) (*domain.Order, error) {
	o, err := scanOrder(db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return o, nil
}

// GetByCode retrieves an order by its human-readable code
func (r *OrderRepository) GetByCode(ctx context.Context, db ports.DBTX, code string) (*domain.Order, error) {
	o, err := scanOrder(db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE code = $1`, code))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return o, nil
}

// GetByIDForUpdate reads an order and locks its row until tx ends
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id int64) (*domain.Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return o, nil
}

// GetByChargeID retrieves the newest order holding a gateway charge reference
func (r *OrderRepository) GetByChargeID(ctx context.Context, db ports.DBTX, chargeID string) (*domain.Order, error) {
	o, err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_charge_id = $1 ORDER BY id DESC LIMIT 1`, chargeID))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return o, nil
}

// FindLatestNewByTotal returns the most recent order in status new with the given total
func (r *OrderRepository) FindLatestNewByTotal(ctx context.Context, db ports.DBTX, total decimal.Decimal) (*domain.Order, error) {
	o, err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND total = $2::numeric
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		string(domain.OrderStatusNew), total.String()))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return o, nil
}

// ListByPhone matches digits against the recipient phone with formatting stripped
func (r *OrderRepository) ListByPhone(ctx context.Context, db ports.DBTX, digits string, limit int) ([]*domain.Order, error) {
	rows, err := db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE regexp_replace(recipient_phone, '\D', '', 'g') LIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC LIMIT $2`,
		digits, limit)
	if err != nil {
		return nil, mapError(fmt.Errorf("list orders by phone: %w", err))
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapError(fmt.Errorf("scan order: %w", err))
		}
		orders = append(orders, o)
	}
	return orders, mapError(rows.Err())
}

// UpdatePaymentState writes a reconciliation decision if the payment status
// has not moved since it was read
func (r *OrderRepository) UpdatePaymentState(ctx context.Context, tx ports.DBTX, u ports.PaymentStateUpdate) (bool, error) {
	tag, err := tx.Exec(ctx, `UPDATE orders SET
		status = $2,
		payment_status = $3,
		gateway_charge_id = COALESCE($4, gateway_charge_id),
		gateway_raw_data = COALESCE($5::jsonb, gateway_raw_data),
		updated_at = now()
	WHERE id = $1 AND payment_status = $6`,
		u.OrderID, string(u.Status), string(u.PaymentStatus), u.ChargeID, jsonbValue(u.RawData),
		string(u.ExpectedPaymentStatus))
	if err != nil {
		return false, mapError(fmt.Errorf("update payment state of order %d: %w", u.OrderID, err))
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus moves an order from expected to status, optionally setting payment status
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id int64, expected, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (bool, error) {
	var pay pgtype.Text
	if paymentStatus != nil {
		pay = nullText(string(*paymentStatus))
	}
	tag, err := tx.Exec(ctx, `UPDATE orders SET
		status = $2,
		payment_status = COALESCE($3, payment_status),
		updated_at = now()
	WHERE id = $1 AND status = $4`,
		id, string(status), pay, string(expected))
	if err != nil {
		return false, mapError(fmt.Errorf("update status of order %d: %w", id, err))
	}
	return tag.RowsAffected() == 1, nil
}

// SetCharge records the active gateway charge, replacing any previous one
func (r *OrderRepository) SetCharge(ctx context.Context, tx ports.DBTX, id int64, chargeID string, rawData []byte) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET gateway_charge_id = $2, gateway_raw_data = $3::jsonb, updated_at = now() WHERE id = $1`,
		id, chargeID, jsonbValue(rawData))
	if err != nil {
		return mapError(fmt.Errorf("set charge of order %d: %w", id, err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// UpdateRawData stores the last-seen provider payload
func (r *OrderRepository) UpdateRawData(ctx context.Context, tx ports.DBTX, id int64, rawData []byte) error {
	if len(rawData) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE orders SET gateway_raw_data = $2::jsonb, updated_at = now() WHERE id = $1`,
		id, jsonbValue(rawData))
	if err != nil {
		return mapError(fmt.Errorf("update raw data of order %d: %w", id, err))
	}
	return nil
}

// Delete removes an order row. The status log must be removed first.
func (r *OrderRepository) Delete(ctx context.Context, tx ports.DBTX, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapError(fmt.Errorf("delete order %d: %w", id, err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MaxSequence returns the highest numeric suffix among codes that start with prefix.
// Ordering is numeric so a sequence past 9999 still sorts after 9999.
func (r *OrderRepository) MaxSequence(ctx context.Context, db ports.DBTX, prefix string) (int, error) {
	var max int
	err := db.QueryRow(ctx, `SELECT COALESCE(MAX(substring(code FROM length($1) + 1)::int), 0)
		FROM orders
		WHERE code LIKE $1 || '%' AND substring(code FROM length($1) + 1) ~ '^[0-9]+$'`,
		prefix).Scan(&max)
	if err != nil {
		return 0, mapError(fmt.Errorf("max sequence for %s: %w", prefix, err))
	}
	return max, nil
}

// LockCodePrefix takes a transaction-scoped advisory lock keyed by prefix so
// concurrent creators for the same day queue instead of colliding
func (r *OrderRepository) LockCodePrefix(ctx context.Context, tx ports.DBTX, prefix string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey(prefix)); err != nil {
		return mapError(fmt.Errorf("lock code prefix %s: %w", prefix, err))
	}
	return nil
}

func advisoryKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("order-code:" + s))
	return int64(h.Sum64())
}
