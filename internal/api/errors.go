package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/order"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Shortages []domain.Shortage `json:"shortages,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var stock *domain.InsufficientStockError
	switch {
	case errors.As(err, &stock), errors.Is(err, order.ErrTerminalStatus):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: err.Error()}

	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		body.Shortages = stock.Shortages
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		body.Error = "internal error"
	}
	respondJSON(w, status, body)
}
