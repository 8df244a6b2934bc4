package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" En_Route ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusEnRoute, s)

	_, err = ParseOrderStatus("shipped")
	assert.True(t, IsDomainError(err, ErrorCodeValidationInvalidStatus))
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	for s := range orderStatuses {
		want := s == OrderStatusDelivered || s == OrderStatusCancelled
		assert.Equal(t, want, s.IsTerminal(), string(s))
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := map[string]PaymentMethod{
		"pix":          PaymentMethodPix,
		"PIX":          PaymentMethodPix,
		"boleto":       PaymentMethodBoletoShort,
		"boleto_short": PaymentMethodBoletoShort,
		"boleto30":     PaymentMethodBoletoLong,
		"boleto_long":  PaymentMethodBoletoLong,
		"card":         PaymentMethodCard,
		"cartao":       PaymentMethodCard,
	}
	for raw, want := range tests {
		got, err := ParsePaymentMethod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParsePaymentMethod("cash")
	assert.True(t, IsValidationError(err))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, OrderStatusUnderReview, InitialStatus(PaymentMethodBoletoLong))
	assert.Equal(t, OrderStatusNew, InitialStatus(PaymentMethodBoletoShort))
	assert.Equal(t, OrderStatusNew, InitialStatus(PaymentMethodPix))
	assert.Equal(t, OrderStatusNew, InitialStatus(PaymentMethodCard))
}

func TestBoletoDueDays(t *testing.T) {
	assert.Equal(t, 3, PaymentMethodBoletoShort.BoletoDueDays())
	assert.Equal(t, 30, PaymentMethodBoletoLong.BoletoDueDays())
	assert.True(t, PaymentMethodBoletoLong.IsBoleto())
	assert.False(t, PaymentMethodPix.IsBoleto())
}

func TestCoupledPaymentStatus(t *testing.T) {
	tests := []struct {
		name   string
		status OrderStatus
		method PaymentMethod
		want   PaymentStatus
		ok     bool
	}{
		{"approved long boleto", OrderStatusApproved, PaymentMethodBoletoLong, PaymentStatusApproved, true},
		{"approved pix has no effect", OrderStatusApproved, PaymentMethodPix, "", false},
		{"rejected any method", OrderStatusRejected, PaymentMethodCard, PaymentStatusRejected, true},
		{"confirmed any method", OrderStatusConfirmed, PaymentMethodBoletoShort, PaymentStatusApproved, true},
		{"separation has no effect", OrderStatusSeparation, PaymentMethodPix, "", false},
		{"cancelled has no effect", OrderStatusCancelled, PaymentMethodPix, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoupledPaymentStatus(tt.status, tt.method)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrder_ChargeHelpers(t *testing.T) {
	o := &Order{}
	assert.False(t, o.HasCharge())
	assert.Equal(t, "", o.ChargeID())

	empty := ""
	o.GatewayChargeID = &empty
	assert.False(t, o.HasCharge())

	id := "txid123"
	o.GatewayChargeID = &id
	assert.True(t, o.HasCharge())
	assert.Equal(t, "txid123", o.ChargeID())

	o.PaymentStatus = PaymentStatusApproved
	assert.True(t, o.IsPaid())
}

func TestStatusLogEntries(t *testing.T) {
	o := &Order{ID: 3, Status: OrderStatusUnderReview}

	created := NewCreationEntry(o)
	assert.Nil(t, created.PreviousStatus)
	assert.Equal(t, OrderStatusUnderReview, created.NewStatus)
	assert.Equal(t, int64(3), created.OrderID)

	moved := NewTransitionEntry(3, OrderStatusUnderReview, OrderStatusApproved, "credit ok")
	require.NotNil(t, moved.PreviousStatus)
	assert.Equal(t, OrderStatusUnderReview, *moved.PreviousStatus)
	assert.Equal(t, OrderStatusApproved, moved.NewStatus)
}
