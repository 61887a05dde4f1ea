package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "world", decode(t, w)["hello"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusNotFound, "not_found", "Product not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "Product not found", body["message"])
	_, hasField := body["field"]
	assert.False(t, hasField, "field is omitted when empty")
}

func TestWriteFieldError_MergesExtras(t *testing.T) {
	w := httptest.NewRecorder()
	WriteFieldError(w, http.StatusLocked, "account_locked", "Account temporarily locked", "password",
		map[string]any{
			"accountLocked": true,
			"lockoutEnd":    "2026-08-29T12:00:00Z",
		})

	assert.Equal(t, http.StatusLocked, w.Code)
	body := decode(t, w)
	assert.Equal(t, "account_locked", body["error"])
	assert.Equal(t, "password", body["field"])
	// Extras are merged into the top-level object, not nested
	assert.Equal(t, true, body["accountLocked"])
	assert.Equal(t, "2026-08-29T12:00:00Z", body["lockoutEnd"])
}

func TestCommonErrorWriters(t *testing.T) {
	tests := []struct {
		name      string
		write     func(w http.ResponseWriter)
		status    int
		errorCode string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "m") }, http.StatusBadRequest, "validation_error"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "m") }, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "m") }, http.StatusForbidden, "forbidden"},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "m") }, http.StatusNotFound, "not_found"},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "m") }, http.StatusConflict, "conflict"},
		{"too many requests", func(w http.ResponseWriter) { WriteTooManyRequests(w, "m") }, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "m") }, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.errorCode, decode(t, w)["error"])
		})
	}
}
