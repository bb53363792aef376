package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer(t *testing.T) {
	// given
	cfg := config.HTTPConfig{Port: 3000, MaxHeaderBytes: 1024}
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = 2 * time.Second
	cfg.Timeout.Idle = 3 * time.Second
	cfg.Timeout.ReadHeader = 4 * time.Second

	// when
	srv := NewHTTPServer(cfg, http.NotFoundHandler())

	// then
	assert.Equal(t, ":3000", srv.Addr)
	assert.Equal(t, 1024, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
}

func TestNewChiRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := NewChiRouter(logger)
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetReqID(r.Context())))
	})
	mux.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	testCases := []struct {
		name         string
		method       string
		path         string
		expectedCode int
		expectedBody string
	}{
		{name: "Unknown route", method: http.MethodGet, path: "/nope", expectedCode: http.StatusNotFound, expectedBody: `{"error":"Route not found"}`},
		{name: "Unsupported method", method: http.MethodPost, path: "/ping", expectedCode: http.StatusNotFound, expectedBody: `{"error":"Route not found"}`},
		{name: "Panic", method: http.MethodGet, path: "/panic", expectedCode: http.StatusInternalServerError, expectedBody: `{"error":"Internal Server Error"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			// when
			mux.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}

	t.Run("Request id is available to handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc")
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "abc", rr.Body.String())
		assert.Equal(t, "abc", rr.Header().Get(middleware.RequestIDHeader))
	})
}

func TestRoutes(t *testing.T) {
	// given
	mux := NewChiRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux.Get("/a", func(http.ResponseWriter, *http.Request) {})
	mux.Post("/a", func(http.ResponseWriter, *http.Request) {})

	// when
	routes, err := Routes(mux)

	// then
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"GET /a", "POST /a"}, routes)
}
