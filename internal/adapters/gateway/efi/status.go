package efi

import (
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
)

// NormalizeStatus maps PIX and charges API states onto the shared vocabulary
func NormalizeStatus(raw string) domain.NormalizedStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "concluida", s == "paid", s == "settled", s == "approved":
		return domain.NormalizedApproved
	case strings.HasPrefix(s, "removida_pelo_"), s == "unpaid", s == "canceled":
		return domain.NormalizedRejected
	case s == "ativa", s == "new", s == "waiting", s == "link":
		return domain.NormalizedPending
	default:
		return domain.NormalizedOther
	}
}
