package handlers

import (
	"net/http"

	"github.com/predmaint/rulserve/internal/model"
	"github.com/predmaint/rulserve/pkg/version"
)

// HealthHandler reports service liveness and model readiness.
type HealthHandler struct {
	Model *model.Regressor
}

// Check returns 200 when the model is loaded and 503 otherwise, so
// orchestrators hold traffic until the service can actually predict.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.Model == nil || !h.Model.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": true,
		"features":     len(h.Model.FeatureColumns()),
		"version":      version.Version,
	})
}
