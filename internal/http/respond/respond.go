// Package respond defines the JSON envelope every endpoint answers with.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope wraps every API response. Code mirrors the HTTP status so
// clients reading only the body still see the outcome.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes data wrapped in the envelope with the given status.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Code: status, Message: message, Data: data}); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}

// Error writes a data-less envelope carrying only the failure message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, message, nil)
}
