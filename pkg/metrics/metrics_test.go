package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	// given
	m := New("test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// when
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	// then
	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight))
}

func TestObserveAuth(t *testing.T) {
	m := New("test")

	m.ObserveAuth("missing")
	m.ObserveAuth("missing")
	m.ObserveAuth("accepted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authRequestsTotal.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authRequestsTotal.WithLabelValues("accepted")))
}

func TestObservePublish(t *testing.T) {
	m := New("test")

	m.ObservePublish("products.created", nil)
	m.ObservePublish("products.created", errors.New("nats down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublishedTotal.WithLabelValues("products.created", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublishedTotal.WithLabelValues("products.created", statusError)))
}

func TestRegisterProductsGauge(t *testing.T) {
	// given
	m := New("test")
	size := 3
	m.RegisterProductsGauge("test", func() int { return size })

	// when
	size = 5

	// then
	expected := `
# HELP test_products Number of products currently stored
# TYPE test_products gauge
test_products 5
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "test_products"))
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.ObserveAuth("invalid")
	rr := httptest.NewRecorder()

	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `test_auth_requests_total{outcome="invalid"} 1`)
}
