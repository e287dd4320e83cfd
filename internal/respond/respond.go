// Package respond writes JSON responses for the HTTP handlers.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayush/spot-finder/backend/internal/apperr"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Errors []string `json:"errors"`
}

// Error renders err as {"errors": [...]} with the status for its kind.
// Persistence failures are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	JSON(w, status, ErrorBody{Errors: apperr.Messages(err)})
}

// Message renders a single error message with an explicit status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Errors: []string{msg}})
}

// Decode reads a JSON body into v. On failure it writes a 400 and returns
// false.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
