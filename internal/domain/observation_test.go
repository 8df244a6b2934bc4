package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func order(status OrderStatus, payment PaymentStatus, chargeID string) *Order {
	o := &Order{ID: 1, Code: "AC-20250314-0001", Status: status, PaymentStatus: payment}
	if chargeID != "" {
		o.GatewayChargeID = &chargeID
	}
	return o
}

func TestDecide_Approved(t *testing.T) {
	t.Run("confirms a pending order and backfills the charge", func(t *testing.T) {
		d := Decide(order(OrderStatusNew, PaymentStatusPending, ""), &Observation{
			Status: NormalizedApproved, Source: SourceWebhook, ChargeID: "abc",
		})

		assert.True(t, d.Apply)
		assert.Equal(t, OrderStatusConfirmed, d.NewStatus)
		assert.Equal(t, PaymentStatusApproved, d.NewPaymentStatus)
		assert.True(t, d.BackfillCharge)
		assert.Contains(t, d.Note, "webhook")
	})

	t.Run("keeps an existing charge reference", func(t *testing.T) {
		d := Decide(order(OrderStatusNew, PaymentStatusPending, "abc"), &Observation{
			Status: NormalizedApproved, Source: SourcePoll, ChargeID: "abc",
		})

		assert.True(t, d.Apply)
		assert.False(t, d.BackfillCharge)
	})

	t.Run("idempotent once approved", func(t *testing.T) {
		d := Decide(order(OrderStatusConfirmed, PaymentStatusApproved, "abc"), &Observation{
			Status: NormalizedApproved, Source: SourceWebhook,
		})

		assert.False(t, d.Apply)
		assert.Equal(t, ReasonAlreadyApproved, d.Reason)
	})

	t.Run("terminal orders are left alone", func(t *testing.T) {
		d := Decide(order(OrderStatusCancelled, PaymentStatusPending, "abc"), &Observation{
			Status: NormalizedApproved, Source: SourceWebhook,
		})

		assert.False(t, d.Apply)
		assert.Equal(t, ReasonTerminal, d.Reason)
	})

	t.Run("refunded orders are left alone", func(t *testing.T) {
		d := Decide(order(OrderStatusCancelled, PaymentStatusRefunded, "abc"), &Observation{
			Status: NormalizedApproved, Source: SourcePoll,
		})

		assert.False(t, d.Apply)
		assert.Equal(t, ReasonRefunded, d.Reason)
	})
}

func TestDecide_Rejected(t *testing.T) {
	t.Run("webhook rejection keeps fulfillment status", func(t *testing.T) {
		d := Decide(order(OrderStatusSeparation, PaymentStatusPending, "abc"), &Observation{
			Status: NormalizedRejected, Source: SourceWebhook,
		})

		assert.True(t, d.Apply)
		assert.Equal(t, OrderStatusSeparation, d.NewStatus)
		assert.Equal(t, PaymentStatusRejected, d.NewPaymentStatus)
	})

	t.Run("charge rejection resets to new with detail", func(t *testing.T) {
		d := Decide(order(OrderStatusUnderReview, PaymentStatusPending, ""), &Observation{
			Status: NormalizedRejected, Source: SourceCharge, Detail: "cc_rejected_insufficient_amount",
		})

		assert.True(t, d.Apply)
		assert.Equal(t, OrderStatusNew, d.NewStatus)
		assert.Contains(t, d.Note, "cc_rejected_insufficient_amount")
	})

	t.Run("repeated rejection is a no-op", func(t *testing.T) {
		d := Decide(order(OrderStatusNew, PaymentStatusRejected, "abc"), &Observation{
			Status: NormalizedRejected, Source: SourcePoll,
		})

		assert.False(t, d.Apply)
		assert.Equal(t, ReasonAlreadyRejected, d.Reason)
	})

	t.Run("charge rejection does not undo an approval", func(t *testing.T) {
		d := Decide(order(OrderStatusConfirmed, PaymentStatusApproved, "first"), &Observation{
			Status: NormalizedRejected, Source: SourceCharge, ChargeID: "second", Detail: "cc_rejected",
		})

		assert.False(t, d.Apply)
		assert.Equal(t, ReasonAlreadyApproved, d.Reason)
	})

	t.Run("late rejection does not undo an approval", func(t *testing.T) {
		d := Decide(order(OrderStatusConfirmed, PaymentStatusApproved, "abc"), &Observation{
			Status: NormalizedRejected, Source: SourceWebhook,
		})

		assert.False(t, d.Apply)
	})
}

func TestDecide_PendingAndOther(t *testing.T) {
	for _, status := range []NormalizedStatus{NormalizedPending, NormalizedOther} {
		d := Decide(order(OrderStatusConfirmed, PaymentStatusApproved, "abc"), &Observation{
			Status: status, Source: SourcePoll,
		})

		assert.False(t, d.Apply, string(status))
		assert.Equal(t, ReasonNotFinal, d.Reason)
	}
}

func TestReconciliationResult(t *testing.T) {
	r := &ReconciliationResult{Outcome: OutcomeSkipped, Reason: ReasonUnmatched}
	assert.False(t, r.Changed())
	assert.Equal(t, "skipped(unmatched)", r.String())

	r = &ReconciliationResult{Outcome: OutcomeApplied}
	assert.True(t, r.Changed())
	assert.Equal(t, "applied", r.String())
}
