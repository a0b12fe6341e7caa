package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/household-ledger/internal/api/middleware"
)

// HealthHandler reports whether the pipeline can accept messages.
type HealthHandler struct {
	ready func() bool
	now   func() time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready, now: time.Now}
}

// Health handles GET /health. It always answers 200 so the process is not restarted
// for an upstream outage; the status field tells the two apart.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.ready() {
		status = "degraded"
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"time":   h.now().Format(time.RFC3339),
	})
}
