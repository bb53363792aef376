// Package web provides HTTP middleware and response helpers shared by the transports.
package web

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/productapi/pkg/apperror"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Auth outcomes reported to an AuthObserver.
const (
	AuthAccepted = "accepted"
	AuthMissing  = "missing"
	AuthInvalid  = "invalid"
)

// AuthObserver is notified about every API key check.
type AuthObserver interface {
	ObserveAuth(outcome string)
}

// APIKeyAuth protects the wrapped handler with a shared-secret key read from header.
// A missing key is answered with 401, a wrong key with 403.
func APIKeyAuth(header, apiKey string, logger *slog.Logger, observer AuthObserver) func(http.Handler) http.Handler {
	expected := []byte(apiKey)
	observe := func(outcome string) {
		if observer != nil {
			observer.ObserveAuth(outcome)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(header)
			if key == "" {
				observe(AuthMissing)
				RespondErr(w, r, logger, apperror.Unauthorized("Missing API key"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
				observe(AuthInvalid)
				RespondErr(w, r, logger, apperror.Forbidden("Invalid API key"))
				return
			}
			observe(AuthAccepted)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDInjector stores a request id in the context under chi's request id key, so that
// middleware.GetReqID and the context log handler can read it. An incoming X-Request-Id is reused.
func RequestIDInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(middleware.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id stored by RequestIDInjector, or "unknown".
func RequestID(ctx context.Context) string {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return reqID
	}
	return "unknown"
}

// StructuredLogger creates a middleware that logs HTTP requests in a structured format.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.InfoContext(r.Context(), "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"route", routePattern(r),
					"status", ww.Status(),
					"bytes_written", ww.BytesWritten(),
					"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Recoverer is a middleware that recovers from panics, logs them and answers with a generic 500.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.ErrorContext(r.Context(), "Panic recovered", "panic", rvr)
					RespondError(w, logger, http.StatusInternalServerError, apperror.InternalMessage)
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// RouteNotFound answers unmatched routes with 404 and a generic body.
func RouteNotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, logger, http.StatusNotFound, "Route not found")
	}
}

// routePattern returns the matched chi route pattern, empty when the request was not routed by chi.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
