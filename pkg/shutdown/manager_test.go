package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestManager_ShutdownOrderIsLIFO(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)

	var order []string
	for _, name := range []string{"database", "relay", "http"} {
		name := name
		m.RegisterNoErr(name, func() { order = append(order, name) })
	}

	failures := m.Shutdown()
	assert.Empty(t, failures)
	assert.Equal(t, []string{"http", "relay", "database"}, order)
}

func TestManager_CollectsErrorsAndContinues(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)

	boom := errors.New("boom")
	ran := false
	m.RegisterNoErr("first", func() { ran = true })
	m.Register("second", func(context.Context) error { return boom })

	failures := m.Shutdown()
	assert.True(t, ran)
	assert.ErrorIs(t, failures["second"], boom)
}

func TestManager_SharedDeadline(t *testing.T) {
	m := NewManager(zap.NewNop(), 50*time.Millisecond)

	var deadline time.Time
	m.Register("check", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})

	m.Shutdown()
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}
