package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productapi/pkg/apperror"
)

// maxBodyBytes caps request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, apperror.InternalMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// RespondErr is the single error boundary for HTTP handlers.
// Classified errors are returned with their own status and message; anything else is logged
// with full detail and flattened to a generic 500.
func RespondErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message, classified := apperror.Classify(err)
	if classified {
		logger.WarnContext(r.Context(), "Request failed", "status", status, "error", err)
	} else {
		logger.ErrorContext(r.Context(), "Unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	RespondError(w, logger, status, message)
}

// DecodeJSON decodes the request body into dst. Any failure is reported as a classified 400.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(http.StatusBadRequest, "Invalid request body", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.BadRequest("Invalid request body")
	}
	return nil
}
