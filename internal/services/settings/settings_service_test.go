package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/testutil/memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGet_Empty(t *testing.T) {
	store := memdb.New()
	svc := NewService(store, store.Settings(), zap.NewNop())

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdate_Upserts(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	svc := NewService(store, store.Settings(), zap.NewNop())

	got, err := svc.Update(ctx, domain.StoreSettings{"delivery_fee": "15.00", "opening_hours": "08:00-18:00"})
	require.NoError(t, err)
	assert.Equal(t, domain.StoreSettings{"delivery_fee": "15.00", "opening_hours": "08:00-18:00"}, got)

	got, err = svc.Update(ctx, domain.StoreSettings{"delivery_fee": "20.00"})
	require.NoError(t, err)
	assert.Equal(t, "20.00", got["delivery_fee"])
	assert.Equal(t, "08:00-18:00", got["opening_hours"], "untouched keys survive")

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestUpdate_Validation(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	svc := NewService(store, store.Settings(), zap.NewNop())

	_, err := svc.Update(ctx, domain.StoreSettings{})
	assert.Equal(t, domain.ErrorCodeValidationMissingField, domain.GetErrorCode(err))

	tooLong := strings.Repeat("k", domain.MaxSettingKeyLength+1)
	_, err = svc.Update(ctx, domain.StoreSettings{"delivery_fee": "15.00", tooLong: "x"})
	assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing written when one key is invalid")
}

type failingSettings struct {
	ports.SettingsRepository
	failKey string
}

func (f *failingSettings) Upsert(ctx context.Context, tx ports.DBTX, key, value string) error {
	if key == f.failKey {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "database error", errors.New("connection reset"))
	}
	return f.SettingsRepository.Upsert(ctx, tx, key, value)
}

func TestUpdate_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	repo := &failingSettings{SettingsRepository: store.Settings(), failKey: "phone"}
	svc := NewService(store, repo, zap.NewNop())

	_, err := svc.Update(ctx, domain.StoreSettings{"delivery_fee": "15.00", "phone": "4733334444"})
	assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))

	stored, err := store.Settings().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
