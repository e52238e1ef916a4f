package handlers

import (
	"net/http"

	"github.com/predmaint/rulserve/pkg/version"
)

// Root returns the API information card.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Turbofan RUL Prediction API",
		"version": version.Version,
		"model":   "Gradient-boosted trees with engineered sensor features",
		"endpoints": map[string]string{
			"predict":     "POST /api/v1/predict - Get RUL prediction",
			"health":      "GET /api/v1/health - Check API health",
			"monitoring":  "GET /api/v1/monitoring - Check for data drift",
			"reset":       "POST /api/v1/monitoring/reset - Clear monitoring window",
			"model-info":  "GET /api/v1/model-info - Model details",
			"predictions": "GET /api/v1/predictions - Prediction history",
			"metrics":     "GET /metrics - Prometheus metrics",
		},
	})
}
