package handler

import (
	"net/http"

	"github.com/ortakpos/ortakpos/infra/response"
	"github.com/ortakpos/ortakpos/provider"
)

// HealthHandler reports service liveness and the registered gateways
type HealthHandler struct {
	registry *provider.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *provider.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]any{
		"providers": h.registry.ProviderNames(),
	})
}
