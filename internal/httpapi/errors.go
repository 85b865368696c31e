package httpapi

import (
	"encoding/json"
	"net/http"

	"assistd/internal/manager"
	"assistd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to a status code and a client-safe message.
// Unknown errors become a generic 500 so internal details are not leaked.
func statusFor(err error) (int, string) {
	switch {
	case manager.IsInvalidRequest(err):
		return http.StatusBadRequest, err.Error()
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests, "too many requests, retry later"
	case manager.IsNotFound(err):
		return http.StatusNotFound, "not found"
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode(), he.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
