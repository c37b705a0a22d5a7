// SPDX-License-Identifier: MIT

package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/vidserve/internal/log"
)

// ErrorBody is the envelope of every JSON error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON encodes v with the given status. Encoding failures after the
// header is sent can only be logged.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r != nil && r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil && r != nil {
		logger := log.WithComponentFromContext(r.Context(), "httpx")
		logger.Debug().Err(err).Str(log.FieldEvent, "response.encode_failed").Msg("failed to write json response")
	}
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, ErrorBody{Error: msg})
}
