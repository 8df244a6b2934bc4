package payment

import (
	"context"
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	svcports "github.com/kevin07696/order-service/internal/services/ports"
	"github.com/kevin07696/order-service/pkg/observability"
	"go.uber.org/zap"
)

// HandleWebhook resolves a provider notification to charge ids, re-queries
// each charge and reconciles the authoritative state. The notification's own
// status fields are never trusted. Errors are logged and counted, never returned.
func (s *Service) HandleWebhook(ctx context.Context, n *svcports.WebhookNotification) *svcports.WebhookResult {
	// the provider may hang up as soon as it gets its 200
	ctx, cancel := s.timeouts.WebhookContext(ctx)
	defer cancel()

	provider := s.gateway.Name()
	result := &svcports.WebhookResult{}

	if !strings.EqualFold(n.Provider, provider) {
		result.Ignored = "provider not active"
		observability.RecordWebhook(n.Provider, "ignored")
		s.logger.Warn("Webhook for inactive provider ignored",
			zap.String("provider", n.Provider),
			zap.String("active_provider", provider))
		return result
	}

	decoder, ok := s.gateway.(ports.WebhookDecoder)
	if !ok {
		result.Ignored = "provider does not accept webhooks"
		observability.RecordWebhook(provider, "ignored")
		return result
	}

	chargeIDs, err := decoder.DecodeWebhook(ctx, n.Body, n.Query)
	if err != nil {
		observability.RecordWebhook(provider, "decode_error")
		s.logger.Error("Webhook could not be decoded",
			zap.String("provider", provider),
			zap.ByteString("body", truncate(n.Body, 512)),
			zap.Error(err))
		result.Ignored = "undecodable payload"
		return result
	}
	if len(chargeIDs) == 0 {
		observability.RecordWebhook(provider, "ignored")
		s.logger.Debug("Webhook carried no charge reference", zap.String("provider", provider))
		result.Ignored = "no charge reference"
		return result
	}

	result.Received = len(chargeIDs)
	for _, chargeID := range chargeIDs {
		res, err := s.reconcileCharge(ctx, chargeID)
		if err != nil {
			result.Failed++
			s.logger.Error("Webhook reconciliation failed",
				zap.String("provider", provider),
				zap.String("charge_id", chargeID),
				zap.Error(err))
			continue
		}
		result.Results = append(result.Results, res)
	}

	outcome := "processed"
	if result.Failed > 0 {
		outcome = "failed"
	}
	observability.RecordWebhook(provider, outcome)
	return result
}

func (s *Service) reconcileCharge(ctx context.Context, chargeID string) (*domain.ReconciliationResult, error) {
	state, err := s.gateway.QueryPayment(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	return s.engine.ReconcileUnresolved(ctx, observationFrom(state, domain.SourceWebhook, chargeID))
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
