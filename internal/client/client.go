// Package client is a typed HTTP client for the payments API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is matched by an APIError with status 404.
	ErrNotFound = errors.New("payment not found")
	// ErrConflict is matched by an APIError with status 409.
	ErrConflict = errors.New("conflict")
	// ErrInvalidRequest is matched by an APIError with status 400.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnavailable is returned when the server is failing or the breaker is open.
	ErrUnavailable = errors.New("payments service unavailable")
)

// APIError is a non-success answer of the payments API.
type APIError struct {
	StatusCode int
	Message    string
	PaymentID  string
}

func (e *APIError) Error() string {
	if e.PaymentID != "" {
		return fmt.Sprintf("payments api: %d %s (payment_id=%s)", e.StatusCode, e.Message, e.PaymentID)
	}
	return fmt.Sprintf("payments api: %d %s", e.StatusCode, e.Message)
}

// Is lets callers match an APIError against the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// PaymentStatus is returned by Authorize and Capture.
type PaymentStatus struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// Payment is returned by Get.
type Payment struct {
	PaymentID string          `json:"payment_id"`
	RideID    string          `json:"ride_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type errorBody struct {
	Error     string `json:"error"`
	PaymentID string `json:"payment_id"`
}

// Client calls the payments API through a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PaymentsAPI",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Authorize creates a payment for rideID.
func (c *Client) Authorize(ctx context.Context, rideID string, amount decimal.Decimal) (*PaymentStatus, error) {
	body := map[string]any{"ride_id": rideID, "amount": amount}

	var out PaymentStatus
	if err := c.do(ctx, http.MethodPost, "/v1/payments/authorize", body, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Capture captures the payment with the given ID.
func (c *Client) Capture(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	body := map[string]string{"payment_id": paymentID}

	var out PaymentStatus
	if err := c.do(ctx, http.MethodPost, "/v1/payments/capture", body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get reads the payment with the given ID.
func (c *Client) Get(ctx context.Context, paymentID string) (*Payment, error) {
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	// Only transport failures and 5xx answers count against the breaker.
	result, err := c.cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		raw := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return raw, apiError(raw)
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	raw, ok := result.(*rawResponse)
	if !ok {
		return fmt.Errorf("unexpected breaker result %T", result)
	}

	if raw.status != want {
		return apiError(raw)
	}

	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiError(raw *rawResponse) *APIError {
	apiErr := &APIError{StatusCode: raw.status, Message: http.StatusText(raw.status)}

	var body errorBody
	if err := json.Unmarshal(raw.body, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.PaymentID = body.PaymentID
	}
	return apiErr
}
