// Package fixtures provides test data builders and helpers.
package fixtures

import (
	"time"

	"github.com/shopspring/decimal"
)

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to the given float64.
func Float64Ptr(f float64) *float64 {
	return &f
}

// TimePtr returns a pointer to the given time.Time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// DecimalPtr parses s and returns a pointer to it. Panics on bad input.
func DecimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
