package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes the repositories react to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapError converts driver errors into domain errors. ErrNoRows is left to
// callers because only they know which entity was missing.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return domain.WrapError(domain.ErrorCodeConflictRetryable, "concurrent update conflict", err).
				WithDetail("constraint", pgErr.ConstraintName)
		}
	}
	return domain.WrapError(domain.ErrorCodeDatabaseError, "database error", err)
}

// notFoundOr maps pgx.ErrNoRows to the order-not-found domain error
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	return mapError(err)
}

// nullText creates a pgtype.Text with empty string handling
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// pgNumericToDecimal converts pgtype.Numeric to decimal.Decimal
func pgNumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("numeric is NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// jsonbValue prepares raw provider data for a JSONB column. Empty data is NULL;
// bytes that are not JSON are stored as a JSON string.
func jsonbValue(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return string(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return string(quoted)
}
