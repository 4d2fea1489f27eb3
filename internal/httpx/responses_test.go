package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/books/", nil)

	JSON(w, r, http.StatusCreated, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, w.Body.String())
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/books/", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-1"))

	JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input",
		[]ErrorDetail{{Field: "title", Message: "cannot be empty or just whitespace"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)
	assert.Equal(t, "Invalid input", response.Error.Message)
	assert.Len(t, response.Error.Details, 1)
	assert.Equal(t, "req-1", response.Meta["request_id"])
}

func TestJSONError_NoRequestID(t *testing.T) {
	w := httptest.NewRecorder()

	JSONError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "NOT_FOUND", "Book not found", nil)

	assert.NotContains(t, w.Body.String(), "meta")
	assert.NotContains(t, w.Body.String(), "details")
}
