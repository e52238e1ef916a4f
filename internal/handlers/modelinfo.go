package handlers

import (
	"net/http"

	"github.com/predmaint/rulserve/internal/features"
	"github.com/predmaint/rulserve/internal/model"
)

// ModelInfoHandler reports details about the loaded model artifact.
type ModelInfoHandler struct {
	Model *model.Regressor
}

// Get returns artifact metadata, hyperparameters, and the feature
// engineering summary.
func (h *ModelInfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Model == nil || !h.Model.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	info := h.Model.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"model_type": info.ModelType,
		"version":    info.Version,
		"num_trees":  h.Model.NumTrees(),
		"feature_engineering": map[string]any{
			"rul_cap":         model.MaxRUL,
			"normalization":   "z-score",
			"key_sensors":     features.KeySensors,
			"dropped_sensors": features.DroppedSensors,
		},
		"hyperparameters": info.Hyperparameters,
		"performance":     info.Performance,
		"features": map[string]any{
			"total_input": len(features.RawFields()),
			"engineered":  len(info.FeatureColumns),
		},
	})
}
