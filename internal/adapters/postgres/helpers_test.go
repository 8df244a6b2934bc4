package postgres

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorCode
	}{
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "orders_code_key"}, domain.ErrorCodeConflictRetryable},
		{"serialization failure", &pgconn.PgError{Code: pgSerializationFailure}, domain.ErrorCodeConflictRetryable},
		{"deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgDeadlockDetected}), domain.ErrorCodeConflictRetryable},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, domain.ErrorCodeDatabaseError},
		{"plain error", errors.New("conn reset"), domain.ErrorCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.GetErrorCode(mapError(tt.err)))
		})
	}

	assert.NoError(t, mapError(nil))
}

func TestNotFoundOr(t *testing.T) {
	assert.True(t, domain.IsNotFoundError(notFoundOr(pgx.ErrNoRows)))
	assert.True(t, domain.IsNotFoundError(notFoundOr(fmt.Errorf("scan: %w", pgx.ErrNoRows))))
	assert.False(t, domain.IsNotFoundError(notFoundOr(errors.New("boom"))))
}

func TestPgNumericToDecimal(t *testing.T) {
	d, err := pgNumericToDecimal(pgtype.Numeric{Int: big.NewInt(15000), Exp: -2, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "150", d.String())

	d, err = pgNumericToDecimal(pgtype.Numeric{})
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = pgNumericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
	assert.Error(t, err)
}

func TestJSONBValue(t *testing.T) {
	assert.Nil(t, jsonbValue(nil))
	assert.Equal(t, `{"status":"paid"}`, jsonbValue([]byte(`{"status":"paid"}`)))
	assert.Equal(t, `"not json"`, jsonbValue([]byte("not json")))
}

func TestAdvisoryKey_StablePerPrefix(t *testing.T) {
	assert.Equal(t, advisoryKey("AC-20250101-"), advisoryKey("AC-20250101-"))
	assert.NotEqual(t, advisoryKey("AC-20250101-"), advisoryKey("AC-20250102-"))
}
