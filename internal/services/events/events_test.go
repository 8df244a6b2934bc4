package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/testutil/fixtures"
	"github.com/kevin07696/order-service/internal/testutil/memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

func TestRecorder_TransitionWritesLogAndEvent(t *testing.T) {
	store := memdb.New()
	o := store.Seed(fixtures.NewOrder().WithStatus(domain.OrderStatusConfirmed).
		WithPaymentStatus(domain.PaymentStatusApproved).Build())
	rec := NewRecorder(store.StatusLog(), store.Outbox(), "orders.status")

	entry, err := rec.Transition(context.Background(), nil, o, domain.OrderStatusNew, "webhook", "payment approved (webhook)")
	require.NoError(t, err)
	require.NotNil(t, entry.PreviousStatus)
	assert.Equal(t, domain.OrderStatusNew, *entry.PreviousStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, entry.NewStatus)

	logs := store.Logs(o.ID)
	require.Len(t, logs, 1)

	records := store.OutboxRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "orders.status", records[0].Topic)
	assert.Equal(t, o.Code, records[0].Key)

	var evt StatusChanged
	require.NoError(t, json.Unmarshal(records[0].Payload, &evt))
	assert.Equal(t, EventTypeStatusChanged, evt.Type)
	assert.Equal(t, records[0].EventID, evt.EventID)
	assert.Equal(t, "webhook", evt.Trigger)
	assert.Equal(t, domain.PaymentStatusApproved, evt.PaymentStatus)
	assert.Equal(t, "150.00", evt.Total)
}

func TestRecorder_CreatedHasNoPreviousStatus(t *testing.T) {
	store := memdb.New()
	o := store.Seed(fixtures.NewOrder().Build())
	rec := NewRecorder(store.StatusLog(), store.Outbox(), "orders.status")

	entry, err := rec.Created(context.Background(), nil, o)
	require.NoError(t, err)
	assert.Nil(t, entry.PreviousStatus)
	assert.Equal(t, "order created", entry.Note)
}

func TestRelay_RelayOnce(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	o1 := store.Seed(fixtures.NewOrder().WithCode("AC-20250314-0001").Build())
	o2 := store.Seed(fixtures.NewOrder().WithCode("AC-20250314-0002").Build())
	rec := NewRecorder(store.StatusLog(), store.Outbox(), "orders.status")
	_, err := rec.Created(ctx, nil, o1)
	require.NoError(t, err)
	_, err = rec.Created(ctx, nil, o2)
	require.NoError(t, err)

	t.Run("publishes in order and marks sent", func(t *testing.T) {
		pub := new(mockPublisher)
		pub.On("Publish", mock.Anything, "orders.status", "AC-20250314-0001", mock.Anything).Return(nil).Once()
		pub.On("Publish", mock.Anything, "orders.status", "AC-20250314-0002", mock.Anything).Return(nil).Once()

		relay := NewRelay(store, store.Outbox(), pub, RelayConfig{BatchSize: 10}, zap.NewNop())
		sent, err := relay.RelayOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		pub.AssertExpectations(t)

		sent, err = relay.RelayOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	})
}

func TestRelay_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	rec := NewRecorder(store.StatusLog(), store.Outbox(), "orders.status")
	for _, code := range []string{"AC-20250314-0001", "AC-20250314-0002"} {
		o := store.Seed(fixtures.NewOrder().WithCode(code).Build())
		_, err := rec.Created(ctx, nil, o)
		require.NoError(t, err)
	}

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, "orders.status", "AC-20250314-0001", mock.Anything).
		Return(errors.New("broker down")).Once()

	relay := NewRelay(store, store.Outbox(), pub, RelayConfig{BatchSize: 10}, zap.NewNop())
	sent, err := relay.RelayOnce(ctx)
	require.Error(t, err)
	assert.Zero(t, sent)
	pub.AssertNumberOfCalls(t, "Publish", 1)

	for _, r := range store.OutboxRecords() {
		assert.Nil(t, r.SentAt)
	}
}
