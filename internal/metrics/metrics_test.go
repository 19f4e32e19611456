package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("capture", "success")
	m.ObserveOperation("capture", "conflict")
	m.ObserveOperation("capture", "conflict")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("capture", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("capture", "conflict")))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodPost, "/v1/payments/capture", http.StatusConflict, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/v1/payments/capture", "4xx")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveOperation("authorize", "success")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `ridepay_payment_operations_total{operation="authorize",outcome="success"} 1`))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(201))
	assert.Equal(t, "3xx", StatusClass(304))
	assert.Equal(t, "4xx", StatusClass(409))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "unknown", StatusClass(0))
}
