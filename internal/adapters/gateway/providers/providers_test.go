package providers

import (
	"context"
	"testing"
	"time"

	"github.com/kevin07696/order-service/internal/adapters/gateway"
	"github.com/kevin07696/order-service/internal/config"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			Provider:         provider,
			Timeout:          time.Second,
			FailureThreshold: 3,
			BreakerTimeout:   time.Second,
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("efi without credentials is unconfigured", func(t *testing.T) {
		gw, err := New(testConfig("efi"), zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &gateway.Guard{}, gw)
		assert.Equal(t, "efi", gw.Name())

		_, err = gw.QueryPayment(context.Background(), "123")
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	})

	t.Run("efi with credentials", func(t *testing.T) {
		cfg := testConfig("efi")
		cfg.Efi = config.EfiConfig{ClientID: "id", ClientSecret: "secret", Sandbox: true}

		gw, err := New(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "efi", gw.Name())
	})

	t.Run("efi certificate that cannot be read", func(t *testing.T) {
		cfg := testConfig("efi")
		cfg.Efi = config.EfiConfig{ClientID: "id", ClientSecret: "secret", CertificatePath: "/nonexistent/cert.p12"}

		_, err := New(cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("mercado pago without token is unconfigured", func(t *testing.T) {
		gw, err := New(testConfig("mercadopago"), zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "mercadopago", gw.Name())

		_, err = gw.CreateCharge(context.Background(), nil)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayNotConfigured))
	})

	t.Run("mercado pago with token", func(t *testing.T) {
		cfg := testConfig("mercadopago")
		cfg.MercadoPago.AccessToken = "TEST-123"

		gw, err := New(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "mercadopago", gw.Name())
	})

	t.Run("none", func(t *testing.T) {
		gw, err := New(testConfig("none"), zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "none", gw.Name())
	})
}
