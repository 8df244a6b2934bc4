package domain

import "time"

// StatusLogEntry is one immutable row of an order's audit trail.
// PreviousStatus is nil only for the creation entry.
type StatusLogEntry struct {
	CreatedAt      time.Time    `json:"created_at"`
	PreviousStatus *OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus  `json:"new_status"`
	Note           string       `json:"note"`
	ID             int64        `json:"id"`
	OrderID        int64        `json:"order_id"`
}

// NewCreationEntry builds the log entry written alongside a new order.
func NewCreationEntry(o *Order) *StatusLogEntry {
	return &StatusLogEntry{
		OrderID:   o.ID,
		NewStatus: o.Status,
		Note:      "order created",
	}
}

// NewTransitionEntry builds a log entry for a move from prev to next.
func NewTransitionEntry(orderID int64, prev, next OrderStatus, note string) *StatusLogEntry {
	return &StatusLogEntry{
		OrderID:        orderID,
		PreviousStatus: &prev,
		NewStatus:      next,
		Note:           note,
	}
}

// OrderWithHistory is an order plus its ordered status log
type OrderWithHistory struct {
	Order   *Order            `json:"order"`
	History []*StatusLogEntry `json:"history"`
}
