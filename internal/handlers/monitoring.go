package handlers

import (
	"net/http"

	"github.com/predmaint/rulserve/internal/monitoring"
)

// MonitoringHandler exposes drift status and the monitoring reset action.
type MonitoringHandler struct {
	Monitor *monitoring.Monitor
}

// Status returns the current drift report.
func (h *MonitoringHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "monitoring not configured")
		return
	}
	writeJSON(w, http.StatusOK, h.Monitor.Report())
}

// Reset clears the monitoring window so a fresh observation period begins.
func (h *MonitoringHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "monitoring not configured")
		return
	}
	h.Monitor.Reset()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "Monitoring data cleared",
		"recent_requests": 0,
	})
}
