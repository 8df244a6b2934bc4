package gateway

import (
	"fmt"
	"net/http"

	"github.com/kevin07696/order-service/internal/domain"
)

// StatusError maps a provider HTTP error response onto a domain error.
// Only server-side and credential problems count as provider unavailability.
func StatusError(provider string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	msg := fmt.Sprintf("%s: %s", provider, message)

	switch {
	case status == http.StatusNotFound:
		return domain.NewDomainError(domain.ErrorCodeOrderNotFound, "charge not found at provider").
			WithDetail("provider", provider).
			WithDetail("provider_message", message)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= 500:
		return domain.NewDomainError(domain.ErrorCodeGatewayUnavailable, msg).
			WithDetail("status", status)
	default:
		return domain.NewDomainError(domain.ErrorCodeValidationFailed, "provider rejected the request").
			WithDetail("provider", provider).
			WithDetail("status", status).
			WithDetail("provider_message", message)
	}
}
