package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"libraryapi/internal/httpx"
)

// Prober issues a lightweight read against the store.
type Prober interface {
	Probe(ctx context.Context) error
}

// Status is the body returned by GET /health.
type Status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

type HTTPHandler struct {
	prober  Prober
	timeout time.Duration
}

func NewHTTPHandler(prober Prober, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{prober: prober, timeout: timeout}
}

// Health handles GET /health. A failed probe is reported as 503, never as a
// process error.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.prober.Probe(ctx); err != nil {
		log.Warn().Err(err).Str("request_id", httpx.RequestIDFrom(r)).Msg("health probe failed")
		httpx.JSON(w, r, http.StatusServiceUnavailable, Status{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}
	httpx.JSON(w, r, http.StatusOK, Status{Status: "healthy", Database: "connected"})
}
