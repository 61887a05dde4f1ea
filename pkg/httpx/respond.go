package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the wire shape for API errors. Field ties the error to a
// form control; Extra carries machine-readable flags (remainingAttempts,
// lockoutEnd, needsVerification, ...) merged into the top-level object.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes an arbitrary payload with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log encoding errors but don't expose them to client
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteFieldError(w, statusCode, errorCode, message, "", nil)
}

// WriteFieldError writes an error tied to a form field, with optional extra
// machine-readable keys merged into the response object.
func WriteFieldError(w http.ResponseWriter, statusCode int, errorCode, message, field string, extra map[string]any) {
	body := map[string]any{
		"error":   errorCode,
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	for k, v := range extra {
		body[k] = v
	}

	WriteJSON(w, statusCode, body)
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "validation_error", message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}
