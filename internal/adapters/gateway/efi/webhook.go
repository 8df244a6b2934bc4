package efi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type pixWebhook struct {
	Pix []pixPayment `json:"pix"`
}

type notificationWebhook struct {
	Notification string `json:"notification"`
}

type notificationResponse struct {
	Data []struct {
		Identifiers struct {
			ChargeID int64 `json:"charge_id"`
		} `json:"identifiers"`
		Status struct {
			Current string `json:"current"`
		} `json:"status"`
	} `json:"data"`
}

// DecodeWebhook implements ports.WebhookDecoder. PIX callbacks carry txids
// directly; charges API callbacks carry an opaque notification token that
// is resolved to charge ids through the API.
func (c *Client) DecodeWebhook(ctx context.Context, body []byte, query url.Values) ([]string, error) {
	var pix pixWebhook
	if err := json.Unmarshal(body, &pix); err == nil && len(pix.Pix) > 0 {
		ids := make([]string, 0, len(pix.Pix))
		seen := make(map[string]bool)
		for _, p := range pix.Pix {
			if p.TxID != "" && !seen[p.TxID] {
				seen[p.TxID] = true
				ids = append(ids, p.TxID)
			}
		}
		return ids, nil
	}

	token := notificationToken(body, query)
	if token == "" {
		// includes the {"evento":"teste_webhook"} check sent on registration
		return nil, nil
	}
	return c.resolveNotification(ctx, token)
}

func notificationToken(body []byte, query url.Values) string {
	var n notificationWebhook
	if err := json.Unmarshal(body, &n); err == nil && n.Notification != "" {
		return n.Notification
	}
	// the charges API posts application/x-www-form-urlencoded
	if form, err := url.ParseQuery(strings.TrimSpace(string(body))); err == nil {
		if t := form.Get("notification"); t != "" {
			return t
		}
	}
	return query.Get("notification")
}

func (c *Client) resolveNotification(ctx context.Context, token string) ([]string, error) {
	var resp notificationResponse
	if _, err := c.charges.do(ctx, http.MethodGet, "/v1/notification/"+url.PathEscape(token), nil, &resp); err != nil {
		return nil, err
	}
	var ids []string
	seen := make(map[int64]bool)
	for _, event := range resp.Data {
		id := event.Identifiers.ChargeID
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, fmt.Sprintf("%d", id))
	}
	return ids, nil
}
