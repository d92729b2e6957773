// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// RespondJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes a JSON error response without a kind.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondErrorKind(w, logger, status, "", err)
}

// RespondErrorKind logs the error and writes {"error": ..., "kind": ...}.
// Server errors are reported with the status text only; the full error is logged.
func RespondErrorKind(w http.ResponseWriter, logger *slog.Logger, status int, kind string, err error) {
	body := ErrorBody{Error: err.Error(), Kind: kind}

	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "error", err, "status", status, "kind", kind)
		body.Error = http.StatusText(status)
	} else {
		logger.Warn("request rejected", "error", err, "status", status, "kind", kind)
	}

	RespondJSON(w, status, body)
}
