package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
)

var _ ports.StatusLogRepository = (*StatusLogRepository)(nil)

// StatusLogRepository persists the append-only order status log
type StatusLogRepository struct{}

// NewStatusLogRepository creates a new status log repository
func NewStatusLogRepository() *StatusLogRepository {
	return &StatusLogRepository{}
}

// Append inserts an entry and fills in ID and CreatedAt
func (r *StatusLogRepository) Append(ctx context.Context, tx ports.DBTX, e *domain.StatusLogEntry) error {
	var prev pgtype.Text
	if e.PreviousStatus != nil {
		prev = nullText(string(*e.PreviousStatus))
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO order_status_log (order_id, previous_status, new_status, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.OrderID, prev, string(e.NewStatus), e.Note,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return mapError(fmt.Errorf("append status log for order %d: %w", e.OrderID, err))
	}
	return nil
}

// ListByOrder returns the entries of an order oldest first
func (r *StatusLogRepository) ListByOrder(ctx context.Context, db ports.DBTX, orderID int64) ([]*domain.StatusLogEntry, error) {
	rows, err := db.Query(ctx,
		`SELECT id, order_id, previous_status, new_status, note, created_at
		FROM order_status_log WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, mapError(fmt.Errorf("list status log for order %d: %w", orderID, err))
	}
	defer rows.Close()

	var entries []*domain.StatusLogEntry
	for rows.Next() {
		var (
			e    domain.StatusLogEntry
			prev pgtype.Text
			next string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &prev, &next, &e.Note, &e.CreatedAt); err != nil {
			return nil, mapError(fmt.Errorf("scan status log: %w", err))
		}
		if prev.Valid {
			s := domain.OrderStatus(prev.String)
			e.PreviousStatus = &s
		}
		e.NewStatus = domain.OrderStatus(next)
		entries = append(entries, &e)
	}
	return entries, mapError(rows.Err())
}

// DeleteByOrder removes every entry of an order
func (r *StatusLogRepository) DeleteByOrder(ctx context.Context, tx ports.DBTX, orderID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM order_status_log WHERE order_id = $1`, orderID); err != nil {
		return mapError(fmt.Errorf("delete status log for order %d: %w", orderID, err))
	}
	return nil
}
