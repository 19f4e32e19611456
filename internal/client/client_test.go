package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Authorize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/authorize", r.URL.Path)

		var body struct {
			RideID string          `json:"ride_id"`
			Amount decimal.Decimal `json:"amount"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R-1", body.RideID)
		assert.True(t, body.Amount.Equal(decimal.RequireFromString("150.5")))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment_id":"P-1","status":"AUTHORIZED"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	res, err := c.Authorize(context.Background(), "R-1", decimal.RequireFromString("150.5"))

	require.NoError(t, err)
	assert.Equal(t, "P-1", res.PaymentID)
	assert.Equal(t, "AUTHORIZED", res.Status)
}

func TestClient_CaptureConflict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"already captured","payment_id":"P-1"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Capture(context.Background(), "P-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "already captured", apiErr.Message)
	assert.Equal(t, "P-1", apiErr.PaymentID)
}

func TestClient_GetNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/P-404", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"payment not found","payment_id":"P-404"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Get(context.Background(), "P-404")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payment_id":"P-1","ride_id":"R-1","amount":"150","status":"CAPTURED","created_at":"2026-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, time.Second).Get(context.Background(), "P-1")

	require.NoError(t, err)
	assert.Equal(t, "R-1", p.RideID)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "CAPTURED", p.Status)
}

func TestClient_BadRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation failed: amount must be greater than 0"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Authorize(context.Background(), "R-1", decimal.Zero)

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"storage unavailable"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_, err := c.Capture(context.Background(), "P-1")
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := c.Capture(context.Background(), "P-1")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits), "open breaker must not reach the server")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"already captured"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	for i := 0; i < 10; i++ {
		_, err := c.Capture(context.Background(), "P-1")
		assert.ErrorIs(t, err, ErrConflict)
	}

	assert.Equal(t, int32(10), atomic.LoadInt32(&hits))
}

func TestClient_GetEscapesPaymentID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/P%2F1%3Fx=1%23y", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"payment_id":"P/1?x=1#y","ride_id":"R-1","amount":"1","status":"AUTHORIZED","created_at":"2026-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, time.Second).Get(context.Background(), "P/1?x=1#y")

	require.NoError(t, err)
	assert.Equal(t, "P/1?x=1#y", p.PaymentID)
}
