// shared/api/response.go
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONErrorResponse defines a standard structure for API error responses.
type JSONErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // Stable machine-readable reason, e.g. TEAM_FULL
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response with the given status code, machine code and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	errResp := JSONErrorResponse{
		Message: message,
		Code:    code,
	}
	if err := WriteJSON(w, status, errResp); err != nil {
		slog.Error("Failed to write JSON error response", slog.Any("error", err))
	}
}

// WriteBadRequest convenience function
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "INVALID_INPUT", message)
}

// WriteNotFound convenience function
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "NOT_FOUND", message)
}

// WriteInternalServerError convenience function
func WriteInternalServerError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "INTERNAL", message)
}
