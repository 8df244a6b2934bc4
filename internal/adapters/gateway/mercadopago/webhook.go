package mercadopago

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"strconv"
)

type notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		// Mercado Pago sends the id as a string in most payloads and as a number in some
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	// legacy IPN form
	Topic    string `json:"topic"`
	Resource string `json:"resource"`
}

// DecodeWebhook implements ports.WebhookDecoder. It accepts the JSON body
// form and both query string forms (?topic=payment&id= and
// ?type=payment&data.id=). Non-payment topics yield no ids.
func (c *Client) DecodeWebhook(_ context.Context, body []byte, query url.Values) ([]string, error) {
	if len(body) > 0 {
		var n notification
		if err := json.Unmarshal(body, &n); err != nil && len(query) == 0 {
			return nil, err
		}
		if id := n.paymentID(); id != "" {
			return []string{id}, nil
		}
		if n.Type != "" || n.Topic != "" {
			return nil, nil
		}
	}

	topic := query.Get("topic")
	if topic == "" {
		topic = query.Get("type")
	}
	if topic != "payment" {
		return nil, nil
	}
	id := query.Get("id")
	if id == "" {
		id = query.Get("data.id")
	}
	if id == "" {
		return nil, nil
	}
	return []string{id}, nil
}

func (n notification) paymentID() string {
	switch {
	case n.Type == "payment":
		var s string
		if err := json.Unmarshal(n.Data.ID, &s); err == nil {
			return s
		}
		var i int64
		if err := json.Unmarshal(n.Data.ID, &i); err == nil && i > 0 {
			return strconv.FormatInt(i, 10)
		}
	case n.Topic == "payment" && n.Resource != "":
		// resource is either the bare id or the payment URL
		if u, err := url.Parse(n.Resource); err == nil && u.Path != "" {
			return path.Base(u.Path)
		}
	}
	return ""
}
