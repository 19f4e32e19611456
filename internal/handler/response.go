package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	PaymentID string            `json:"payment_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// paymentID, when known, is echoed back to the caller.
func respondError(c *gin.Context, err error, paymentID string) {
	_ = c.Error(err)

	resp := ErrorResponse{Error: errorMessage(err)}

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		resp.Fields = vErr.Fields
	}
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrConflict) {
		resp.PaymentID = paymentID
	}

	c.JSON(mapErrorToHTTPStatus(err), resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the text shown to the caller. Storage causes stay in the logs.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyCaptured):
		return "already captured"
	case errors.Is(err, service.ErrPaymentNotFound):
		return "payment not found"
	case errors.Is(err, service.ErrValidation):
		return err.Error()
	case errors.Is(err, service.ErrStorage):
		return "storage unavailable"
	default:
		return "internal server error"
	}
}
