package mercadopago

import (
	"encoding/json"
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
)

// NormalizeStatus maps Mercado Pago payment states onto the shared vocabulary.
// Refunds and chargebacks are reported as other: they are driven by the
// refund operation, never by reconciliation.
func NormalizeStatus(raw string) domain.NormalizedStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "authorized":
		return domain.NormalizedApproved
	case "rejected", "cancelled":
		return domain.NormalizedRejected
	case "pending", "in_process", "in_mediation":
		return domain.NormalizedPending
	default:
		return domain.NormalizedOther
	}
}

func marshalRaw(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
