package handlers

import (
	"net/http"
	"time"

	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/store"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthResponse is the body of a health probe response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Liveness handles GET /health.
// Always healthy while the process is serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	response.WriteJSONOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Readiness handles GET /health/ready.
// Healthy only when the credential store answers a ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Healthcheck(r.Context()); err != nil {
		logger.WarnCtx(r.Context(), "store healthcheck failed", logger.Err(err))
		response.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		})
		return
	}

	response.WriteJSONOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}
