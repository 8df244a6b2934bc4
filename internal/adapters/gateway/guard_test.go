package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGuard(inner ports.PaymentGateway) *Guard {
	return NewGuard(inner, GuardConfig{
		Timeout:          200 * time.Millisecond,
		FailureThreshold: 2,
		BreakerTimeout:   time.Hour,
	}, zap.NewNop())
}

func TestGuard_PassesThroughSuccess(t *testing.T) {
	gw := mocks.NewMockPaymentGateway("efi")
	gw.On("QueryPayment", mock.Anything, "123").
		Return(&ports.PaymentState{ChargeID: "123", Status: domain.NormalizedApproved}, nil)

	state, err := newGuard(gw).QueryPayment(context.Background(), "123")

	require.NoError(t, err)
	assert.Equal(t, domain.NormalizedApproved, state.Status)
	gw.AssertExpectations(t)
}

func TestGuard_ErrorMapping(t *testing.T) {
	t.Run("plain error becomes gateway unavailable", func(t *testing.T) {
		gw := mocks.NewMockPaymentGateway("efi")
		gw.On("QueryPayment", mock.Anything, "1").Return(nil, errors.New("connection refused"))

		_, err := newGuard(gw).QueryPayment(context.Background(), "1")

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUnavailable))
	})

	t.Run("domain errors pass unchanged", func(t *testing.T) {
		gw := mocks.NewMockPaymentGateway("efi")
		gw.On("QueryPayment", mock.Anything, "1").Return(nil, domain.ErrOrderNotFound)

		_, err := newGuard(gw).QueryPayment(context.Background(), "1")

		assert.True(t, domain.IsNotFoundError(err))
	})

	t.Run("deadline becomes gateway timeout", func(t *testing.T) {
		gw := mocks.NewMockPaymentGateway("efi")
		gw.On("QueryPayment", mock.Anything, "1").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		_, err := newGuard(gw).QueryPayment(context.Background(), "1")

		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayTimeout))
	})
}

func TestGuard_CircuitOpensOnProviderFailures(t *testing.T) {
	gw := mocks.NewMockPaymentGateway("mercadopago")
	gw.On("QueryPayment", mock.Anything, "1").Return(nil, errors.New("503")).Times(2)

	g := newGuard(gw)
	for i := 0; i < 2; i++ {
		_, err := g.QueryPayment(context.Background(), "1")
		require.Error(t, err)
	}

	_, err := g.QueryPayment(context.Background(), "1")

	require.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUnavailable))
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, "circuit_open", resultLabel(err))
	gw.AssertNumberOfCalls(t, "QueryPayment", 2)
}

func TestGuard_ValidationErrorsDoNotTripCircuit(t *testing.T) {
	gw := mocks.NewMockPaymentGateway("efi")
	gw.On("CreateCharge", mock.Anything, mock.Anything).
		Return(nil, StatusError("efi", http.StatusUnprocessableEntity, "invalid cpf"))

	g := newGuard(gw)
	for i := 0; i < 5; i++ {
		_, err := g.CreateCharge(context.Background(), &ports.ChargeRequest{OrderCode: "AC-20250314-0001"})
		assert.True(t, domain.IsValidationError(err))
	}
	gw.AssertNumberOfCalls(t, "CreateCharge", 5)
}

func TestGuard_UnconfiguredKeepsCircuitClosed(t *testing.T) {
	g := newGuard(NewUnconfigured("efi"))
	for i := 0; i < 4; i++ {
		_, err := g.QueryPayment(context.Background(), "1")
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	}
}

func TestGuard_DecodeWebhook(t *testing.T) {
	gw := mocks.NewMockPaymentGateway("efi")
	gw.On("DecodeWebhook", mock.Anything, []byte(`{}`), mock.Anything).Return([]string{"abc"}, nil)

	ids, err := newGuard(gw).DecodeWebhook(context.Background(), []byte(`{}`), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestUnconfigured(t *testing.T) {
	u := NewUnconfigured("efi")
	ctx := context.Background()

	_, err := u.CreateCharge(ctx, &ports.ChargeRequest{})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	_, err = u.QueryPayment(ctx, "1")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	_, err = u.Refund(ctx, &ports.RefundRequest{})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	assert.Equal(t, "efi", u.Name())
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		code   domain.ErrorCode
	}{
		{http.StatusNotFound, domain.ErrorCodeOrderNotFound},
		{http.StatusBadRequest, domain.ErrorCodeValidationFailed},
		{http.StatusConflict, domain.ErrorCodeValidationFailed},
		{http.StatusUnprocessableEntity, domain.ErrorCodeValidationFailed},
		{http.StatusUnauthorized, domain.ErrorCodeGatewayUnavailable},
		{http.StatusTooManyRequests, domain.ErrorCodeGatewayUnavailable},
		{http.StatusBadGateway, domain.ErrorCodeGatewayUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.code, domain.GetErrorCode(StatusError("efi", tt.status, "")))
		})
	}
}
