// Package providers builds the payment gateway selected by configuration.
package providers

import (
	"fmt"

	"github.com/kevin07696/order-service/internal/adapters/gateway"
	"github.com/kevin07696/order-service/internal/adapters/gateway/efi"
	"github.com/kevin07696/order-service/internal/adapters/gateway/mercadopago"
	"github.com/kevin07696/order-service/internal/config"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"go.uber.org/zap"
)

// New builds the provider selected by PAYMENT_PROVIDER behind the guard.
// Missing credentials are not an error: the returned gateway answers
// GATEWAY_NOT_CONFIGURED so the rest of the service keeps working.
func New(cfg *config.Config, logger *zap.Logger) (ports.PaymentGateway, error) {
	inner, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Payment gateway initialized", zap.String("provider", inner.Name()))

	failures := cfg.Gateway.FailureThreshold
	if failures < 0 {
		failures = 0
	}
	return gateway.NewGuard(inner, gateway.GuardConfig{
		Timeout:          cfg.Gateway.Timeout,
		FailureThreshold: uint32(failures),
		BreakerTimeout:   cfg.Gateway.BreakerTimeout,
	}, logger), nil
}

func newProvider(cfg *config.Config, logger *zap.Logger) (ports.PaymentGateway, error) {
	switch cfg.Gateway.Provider {
	case efi.ProviderName:
		efiCfg := efi.Config{
			ClientID:       cfg.Efi.ClientID,
			ClientSecret:   cfg.Efi.ClientSecret,
			PixKey:         cfg.Efi.PixKey,
			ChargesBaseURL: cfg.Efi.ChargesBaseURL,
			PixBaseURL:     cfg.Efi.PixBaseURL,
			Timeout:        cfg.Gateway.Timeout,
			Sandbox:        cfg.Efi.Sandbox,
		}
		if !efiCfg.Configured() {
			logger.Warn("Efi credentials missing, payments disabled")
			return gateway.NewUnconfigured(efi.ProviderName), nil
		}
		if cfg.Efi.CertificatePath != "" {
			cert, err := efi.LoadCertificate(cfg.Efi.CertificatePath, cfg.Efi.CertificatePass)
			if err != nil {
				return nil, fmt.Errorf("load efi certificate: %w", err)
			}
			efiCfg.Certificate = cert
		}
		if efiCfg.PixKey == "" {
			logger.Warn("EFI_PIX_KEY not set, PIX charges disabled")
		}
		return efi.NewClient(efiCfg, logger), nil

	case mercadopago.ProviderName:
		if cfg.MercadoPago.AccessToken == "" {
			logger.Warn("Mercado Pago access token missing, payments disabled")
			return gateway.NewUnconfigured(mercadopago.ProviderName), nil
		}
		client, err := mercadopago.NewClient(mercadopago.Config{
			AccessToken:     cfg.MercadoPago.AccessToken,
			NotificationURL: cfg.MercadoPago.NotificationURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("mercado pago client: %w", err)
		}
		return client, nil

	default:
		logger.Warn("No payment provider selected, payments disabled")
		return gateway.NewUnconfigured(cfg.Gateway.Provider), nil
	}
}
