package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// AuthorizePaymentRequest is the HTTP request body for authorizing a payment.
// Amount accepts a JSON number or a numeric string.
type AuthorizePaymentRequest struct {
	RideID string          `json:"ride_id"`
	Amount decimal.Decimal `json:"amount"`
}

// CapturePaymentRequest is the HTTP request body for capturing a payment.
type CapturePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

// PaymentStatusResponse is the HTTP response for authorize and capture.
type PaymentStatusResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// PaymentResponse is the HTTP response for reading a payment.
type PaymentResponse struct {
	PaymentID string          `json:"payment_id"`
	RideID    string          `json:"ride_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Authorize handles POST /v1/payments/authorize
func (h *PaymentHandler) Authorize(c *gin.Context) {
	var req AuthorizePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: ride_id must be a string and amount a number"})
		return
	}

	payment, err := h.paymentService.Authorize(c.Request.Context(), service.AuthorizeRequest{
		RideID: req.RideID,
		Amount: req.Amount,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}

	respondJSON(c, http.StatusCreated, toStatusResponse(payment))
}

// Capture handles POST /v1/payments/capture
func (h *PaymentHandler) Capture(c *gin.Context) {
	var req CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.Capture(c.Request.Context(), service.CaptureRequest{
		PaymentID: req.PaymentID,
	})
	if err != nil {
		respondError(c, err, strings.TrimSpace(req.PaymentID))
		return
	}

	respondJSON(c, http.StatusOK, toStatusResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID := c.Param("id")

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err, paymentID)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		PaymentID: payment.ID,
		RideID:    payment.RideID,
		Amount:    payment.Amount,
		Status:    string(payment.Status),
		CreatedAt: payment.CreatedAt,
	})
}

func toStatusResponse(p *domain.Payment) PaymentStatusResponse {
	return PaymentStatusResponse{
		PaymentID: p.ID,
		Status:    string(p.Status),
	}
}
