package efi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// Efi only accepts alphanumeric txids of 26 to 35 characters
const (
	minTxIDLength = 26
	maxTxIDLength = 35
)

type pixCalendar struct {
	Expiracao int `json:"expiracao"`
}

type pixValue struct {
	Original string `json:"original"`
}

type pixInfo struct {
	Nome  string `json:"nome"`
	Valor string `json:"valor"`
}

type pixChargeRequest struct {
	Calendario     pixCalendar `json:"calendario"`
	Valor          pixValue    `json:"valor"`
	Chave          string      `json:"chave"`
	InfoAdicionais []pixInfo   `json:"infoAdicionais,omitempty"`
}

type pixPayment struct {
	EndToEndID string `json:"endToEndId"`
	TxID       string `json:"txid"`
	Valor      string `json:"valor"`
}

type pixChargeResponse struct {
	TxID           string       `json:"txid"`
	Status         string       `json:"status"`
	Valor          pixValue     `json:"valor"`
	InfoAdicionais []pixInfo    `json:"infoAdicionais"`
	Pix            []pixPayment `json:"pix"`
	Loc            struct {
		ID int64 `json:"id"`
	} `json:"loc"`
}

type pixQRCodeResponse struct {
	QRCode       string `json:"qrcode"`
	ImagemQRCode string `json:"imagemQrcode"`
}

// TxID derives the PIX transaction id from an order code: separators are
// dropped and the result is right padded with zeros to the minimum length.
func TxID(code string) string {
	id := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, code)
	if len(id) > maxTxIDLength {
		id = id[:maxTxIDLength]
	}
	if len(id) < minTxIDLength {
		id += strings.Repeat("0", minTxIDLength-len(id))
	}
	return id
}

func (c *Client) createPix(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	txid := TxID(req.OrderCode)
	body := pixChargeRequest{
		Calendario: pixCalendar{Expiracao: int(c.pixExpiration.Seconds())},
		Valor:      pixValue{Original: req.Amount.StringFixed(2)},
		Chave:      c.pixKey,
		InfoAdicionais: []pixInfo{
			{Nome: "Pedido", Valor: req.OrderCode},
		},
	}
	if req.Description != "" {
		body.InfoAdicionais = append(body.InfoAdicionais, pixInfo{Nome: "Cesta", Valor: truncate(req.Description, 200)})
	}

	var charge pixChargeResponse
	raw, err := c.pix.do(ctx, http.MethodPut, "/v2/cob/"+txid, body, &charge)
	if err != nil {
		return nil, err
	}

	ref := &ports.ChargeRef{
		RawData:  raw,
		ChargeID: charge.TxID,
		Status:   NormalizeStatus(charge.Status),
	}
	if ref.ChargeID == "" {
		ref.ChargeID = txid
	}

	var qr pixQRCodeResponse
	if _, err := c.pix.do(ctx, http.MethodGet, fmt.Sprintf("/v2/loc/%d/qrcode", charge.Loc.ID), nil, &qr); err != nil {
		return nil, err
	}
	ref.PixCopyPaste = qr.QRCode
	ref.QRCodeImage = stripDataURI(qr.ImagemQRCode)
	return ref, nil
}

func (c *Client) queryPix(ctx context.Context, txid string) (*ports.PaymentState, *pixChargeResponse, error) {
	var charge pixChargeResponse
	raw, err := c.pix.do(ctx, http.MethodGet, "/v2/cob/"+txid, nil, &charge)
	if err != nil {
		return nil, nil, err
	}

	state := &ports.PaymentState{
		RawData:   raw,
		ChargeID:  txid,
		Status:    NormalizeStatus(charge.Status),
		RawStatus: charge.Status,
	}
	if amount, err := decimal.NewFromString(charge.Valor.Original); err == nil {
		state.Amount = &amount
	}
	for _, info := range charge.InfoAdicionais {
		if info.Nome == "Pedido" {
			state.ExternalReference = info.Valor
		}
	}
	// a settled PIX charge stays ATIVA until Efi flips it, but the payment list is authoritative
	if state.Status == domain.NormalizedPending && len(charge.Pix) > 0 {
		state.Status = domain.NormalizedApproved
		state.StatusDetail = "pix received"
	}
	return state, &charge, nil
}

func stripDataURI(s string) string {
	if i := strings.Index(s, "base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+len("base64,"):]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
