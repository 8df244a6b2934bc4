package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrorCodeOrderNotFound, "order not found")
	assert.Equal(t, "ORDER_NOT_FOUND: order not found", err.Error())

	wrapped := WrapError(ErrorCodeDatabaseError, "insert order", errors.New("connection reset"))
	assert.Equal(t, "INTERNAL_DATABASE_ERROR: insert order: connection reset", wrapped.Error())
}

func TestDomainError_Wrapping(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("query payment: %w", WrapError(ErrorCodeGatewayTimeout, "payment gateway timeout", cause))

	assert.True(t, errors.Is(err, cause), "cause reachable through Unwrap")
	assert.True(t, errors.Is(err, ErrGatewayTimedOut), "sentinel matched by code")
	assert.False(t, errors.Is(err, ErrGatewayUnavailable))
	assert.Equal(t, ErrorCodeGatewayTimeout, GetErrorCode(err))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeValidationMissingField, "recipient phone is required").
		WithDetail("field", "delivery.recipient_phone")

	assert.Equal(t, "delivery.recipient_phone", err.Details["field"])

	var empty DomainError
	empty.WithDetail("k", 1)
	assert.Equal(t, 1, empty.Details["k"])
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err        error
		validation bool
		gateway    bool
		notFound   bool
		retryable  bool
		status     int
	}{
		{err: ErrValidationFailed, validation: true, status: http.StatusBadRequest},
		{err: ErrInvalidStatus, validation: true, status: http.StatusBadRequest},
		{err: ErrInvalidTransition, validation: true, status: http.StatusBadRequest},
		{err: ErrValidationAmountInvalid, validation: true, status: http.StatusBadRequest},
		{err: ErrOrderNotFound, notFound: true, status: http.StatusNotFound},
		{err: ErrNoChargeRegistered, status: http.StatusUnprocessableEntity},
		{err: ErrConflictRetryable, retryable: true, status: http.StatusConflict},
		{err: ErrGatewayUnavailable, gateway: true, retryable: true, status: http.StatusServiceUnavailable},
		{err: ErrGatewayTimedOut, gateway: true, retryable: true, status: http.StatusServiceUnavailable},
		{err: ErrGatewayNotConfigured, gateway: true, status: http.StatusServiceUnavailable},
		{err: ErrDatabaseError, status: http.StatusInternalServerError},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("layer: %w", tt.err)
			assert.Equal(t, tt.validation, IsValidationError(wrapped))
			assert.Equal(t, tt.gateway, IsGatewayError(wrapped))
			assert.Equal(t, tt.notFound, IsNotFoundError(wrapped))
			assert.Equal(t, tt.retryable, IsRetryable(wrapped))
			assert.Equal(t, tt.status, HTTPStatus(wrapped))
		})
	}
}

func TestIsDomainError(t *testing.T) {
	err := fmt.Errorf("reconcile: %w", ErrOrderUnmatched)

	assert.True(t, IsDomainError(err, ErrorCodeOrderUnmatched))
	assert.False(t, IsDomainError(err, ErrorCodeOrderNotFound))
	assert.False(t, IsDomainError(nil, ErrorCodeOrderNotFound))
}
