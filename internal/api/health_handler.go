package api

import (
	"net/http"

	"github.com/altscribe/altscribe-api/internal/api/shared"
)

// HealthHandler reports liveness and the active storage backend.
type HealthHandler struct {
	storage string
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(storage, version string) *HealthHandler {
	return &HealthHandler{storage: storage, version: version}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Storage: h.storage,
		Version: h.version,
	})
}
