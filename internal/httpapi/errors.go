package httpapi

import (
	"encoding/json"
	"net/http"

	"locallm/internal/engine"
	"locallm/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps the engine error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	switch {
	case engine.IsTimeout(err):
		return http.StatusGatewayTimeout
	case engine.IsConnectivity(err), engine.IsModelUnavailable(err):
		return http.StatusServiceUnavailable
	case engine.IsDownload(err), engine.IsGeneration(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
