package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kilnlog/kilnlog"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the response matching the error's classification.
// Ownership mismatches already surface as ErrNotFound, so there is no
// forbidden case here.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, kilnlog.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if errors.Is(err, kilnlog.ErrValidation) {
		WriteError(w, http.StatusUnprocessableEntity, "validation_failure", err.Error())
		return
	}

	if errors.Is(err, kilnlog.ErrUnauthorized) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	if errors.Is(err, kilnlog.ErrStoreUnavailable) {
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "A backing store is unavailable")
		return
	}

	// ErrUpstream, ErrInvariant, and anything unclassified
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
