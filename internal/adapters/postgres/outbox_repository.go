package postgres

import (
	"context"
	"fmt"

	"github.com/kevin07696/order-service/internal/domain/ports"
)

var _ ports.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository stores events next to the state changes they describe
type OutboxRepository struct{}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Insert adds a pending record
func (r *OutboxRepository) Insert(ctx context.Context, tx ports.DBTX, rec *ports.OutboxRecord) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id, created_at`,
		rec.EventID, rec.Topic, rec.Key, string(rec.Payload),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return mapError(fmt.Errorf("insert outbox event %s: %w", rec.EventID, err))
	}
	return nil
}

// FetchPending returns unsent records oldest first
func (r *OutboxRepository) FetchPending(ctx context.Context, db ports.DBTX, limit int) ([]*ports.OutboxRecord, error) {
	rows, err := db.Query(ctx,
		`SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(fmt.Errorf("fetch pending outbox: %w", err))
	}
	defer rows.Close()

	var out []*ports.OutboxRecord
	for rows.Next() {
		var rec ports.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, mapError(fmt.Errorf("scan outbox: %w", err))
		}
		out = append(out, &rec)
	}
	return out, mapError(rows.Err())
}

// MarkSent flags a record as delivered
func (r *OutboxRepository) MarkSent(ctx context.Context, db ports.DBTX, id int64) error {
	if _, err := db.Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = $1`, id); err != nil {
		return mapError(fmt.Errorf("mark outbox %d sent: %w", id, err))
	}
	return nil
}
