// Package events writes order transitions to the status log and the outbox,
// and relays outbox records to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/pkg/observability"
)

// EventTypeStatusChanged is the type of every event this service emits
const EventTypeStatusChanged = "order.status_changed"

// Triggers name what caused a transition
const (
	TriggerCreated = "created"
	TriggerAdmin   = "admin"
	TriggerRefund  = "refund"
)

// StatusChanged is the outbox payload for a status transition
type StatusChanged struct {
	OccurredAt     time.Time            `json:"occurred_at"`
	PreviousStatus *domain.OrderStatus  `json:"previous_status"`
	EventID        string               `json:"event_id"`
	Type           string               `json:"type"`
	OrderCode      string               `json:"order_code"`
	NewStatus      domain.OrderStatus   `json:"new_status"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method"`
	Trigger        string               `json:"trigger"`
	Note           string               `json:"note"`
	Total          string               `json:"total"`
	OrderID        int64                `json:"order_id"`
}

// Recorder pairs a status log entry with an outbox event. Both are written
// on the caller's transaction so they commit or roll back with the order row.
type Recorder struct {
	logs   ports.StatusLogRepository
	outbox ports.OutboxRepository
	topic  string
}

// NewRecorder creates a transition recorder publishing to topic
func NewRecorder(logs ports.StatusLogRepository, outbox ports.OutboxRepository, topic string) *Recorder {
	return &Recorder{logs: logs, outbox: outbox, topic: topic}
}

// Created records the first log entry of a freshly inserted order.
func (r *Recorder) Created(ctx context.Context, tx ports.DBTX, o *domain.Order) (*domain.StatusLogEntry, error) {
	return r.write(ctx, tx, o, domain.NewCreationEntry(o), TriggerCreated)
}

// Transition records a move of o from prev to o.Status. o must already carry
// the values written to storage.
func (r *Recorder) Transition(ctx context.Context, tx ports.DBTX, o *domain.Order, prev domain.OrderStatus, trigger, note string) (*domain.StatusLogEntry, error) {
	entry, err := r.write(ctx, tx, o, domain.NewTransitionEntry(o.ID, prev, o.Status, note), trigger)
	if err != nil {
		return nil, err
	}
	observability.RecordStatusTransition(string(prev), string(o.Status), trigger)
	return entry, nil
}

func (r *Recorder) write(ctx context.Context, tx ports.DBTX, o *domain.Order, entry *domain.StatusLogEntry, trigger string) (*domain.StatusLogEntry, error) {
	if err := r.logs.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("append status log: %w", err)
	}

	evt := StatusChanged{
		EventID:        uuid.NewString(),
		Type:           EventTypeStatusChanged,
		OrderID:        o.ID,
		OrderCode:      o.Code,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		Trigger:        trigger,
		Note:           entry.Note,
		Total:          o.Total.StringFixed(2),
		OccurredAt:     entry.CreatedAt,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", EventTypeStatusChanged, err)
	}
	rec := &ports.OutboxRecord{
		EventID: evt.EventID,
		Topic:   r.topic,
		Key:     o.Code,
		Payload: payload,
	}
	if err := r.outbox.Insert(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}
	return entry, nil
}
