package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed            ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField      ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationAmountInvalid     ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationInvalidStatus     ErrorCode = "VALIDATION_INVALID_STATUS"
	ErrorCodeValidationInvalidTransition ErrorCode = "VALIDATION_INVALID_TRANSITION"

	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound  ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeOrderUnmatched ErrorCode = "ORDER_UNMATCHED"

	// Payment Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayUnavailable   ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrorCodeGatewayTimeout       ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"

	// Concurrency Errors
	ErrorCodeConflictRetryable ErrorCode = "CONFLICT_RETRYABLE"

	// Charge Errors
	ErrorCodeNoChargeRegistered ErrorCode = "NO_CHARGE_REGISTERED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == ErrorCodeOrderNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeValidationFailed,
		ErrorCodeValidationMissingField,
		ErrorCodeValidationAmountInvalid,
		ErrorCodeValidationInvalidStatus,
		ErrorCodeValidationInvalidTransition:
		return true
	}
	return false
}

// IsGatewayError checks if an error is a payment gateway error
func IsGatewayError(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeGatewayUnavailable, ErrorCodeGatewayTimeout, ErrorCodeGatewayNotConfigured:
		return true
	}
	return false
}

// IsRetryable reports whether the caller may retry the failed operation unchanged.
func IsRetryable(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeGatewayUnavailable, ErrorCodeGatewayTimeout, ErrorCodeConflictRetryable:
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code the HTTP layer should answer with.
func HTTPStatus(err error) int {
	switch code := GetErrorCode(err); {
	case IsValidationError(err):
		return http.StatusBadRequest
	case code == ErrorCodeOrderNotFound:
		return http.StatusNotFound
	case code == ErrorCodeNoChargeRegistered:
		return http.StatusUnprocessableEntity
	case code == ErrorCodeConflictRetryable:
		return http.StatusConflict
	case IsGatewayError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Structured error instances
var (
	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrInvalidStatus           = NewDomainError(ErrorCodeValidationInvalidStatus, "invalid order status")
	ErrInvalidTransition       = NewDomainError(ErrorCodeValidationInvalidTransition, "status transition not allowed")

	ErrOrderNotFound  = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrOrderUnmatched = NewDomainError(ErrorCodeOrderUnmatched, "no order matches the payment observation")

	ErrGatewayUnavailable   = NewDomainError(ErrorCodeGatewayUnavailable, "payment gateway unavailable")
	ErrGatewayTimedOut      = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timeout")
	ErrGatewayNotConfigured = NewDomainError(ErrorCodeGatewayNotConfigured, "payment gateway not configured")

	ErrConflictRetryable  = NewDomainError(ErrorCodeConflictRetryable, "concurrent update conflict")
	ErrNoChargeRegistered = NewDomainError(ErrorCodeNoChargeRegistered, "order has no registered charge")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
