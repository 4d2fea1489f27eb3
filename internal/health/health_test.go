package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) Probe(ctx context.Context) error { return f(ctx) }

func TestHTTPHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		probe          proberFunc
		expectedStatus int
		expectedBody   Status
	}{
		{
			name:           "healthy",
			probe:          func(context.Context) error { return nil },
			expectedStatus: http.StatusOK,
			expectedBody:   Status{Status: "healthy", Database: "connected"},
		},
		{
			name:           "store unreachable",
			probe:          func(context.Context) error { return errors.New("dial tcp: connection refused") },
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody: Status{
				Status:   "unhealthy",
				Database: "disconnected",
				Error:    "dial tcp: connection refused",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHTTPHandler(tt.probe, time.Second)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/health", nil)

			handler.Health(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var got Status
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, tt.expectedBody, got)
		})
	}
}

func TestHTTPHandler_Health_AppliesTimeout(t *testing.T) {
	var hadDeadline bool
	handler := NewHTTPHandler(proberFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}), 500*time.Millisecond)

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, hadDeadline)
	assert.Equal(t, http.StatusOK, w.Code)
}
