// Package http exposes the order and payment services over a chi router.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Error   string                 `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Internal errors are logged and
// answered without their cause.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := domain.HTTPStatus(err)
	resp := errorResponse{Code: string(domain.ErrorCodeInternalError), Error: "internal server error"}

	var de *domain.DomainError
	if errors.As(err, &de) && status != http.StatusInternalServerError {
		resp.Code = string(de.Code)
		resp.Error = de.Message
		if len(de.Details) > 0 {
			resp.Details = de.Details
		}
	} else {
		logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "could not read request body", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "request body is not valid JSON", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewDomainError(domain.ErrorCodeValidationFailed, fmt.Sprintf("invalid order id %q", raw))
	}
	return id, nil
}
