package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/predmaint/rulserve/internal/monitoring"
)

func TestMonitoringHandler_Status(t *testing.T) {
	t.Run("reports insufficient data on an empty window", func(t *testing.T) {
		monitor, err := monitoring.New(testBaseline())
		if err != nil {
			t.Fatalf("failed to create monitor: %v", err)
		}
		handler := &MonitoringHandler{Monitor: monitor}

		r := chi.NewRouter()
		r.Get("/api/v1/monitoring", handler.Status)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var report monitoring.Report
		if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !report.InsufficientData {
			t.Error("expected insufficient_data to be true")
		}
		if report.DriftDetected {
			t.Error("expected drift_detected to be false")
		}
		if report.RecentRequests != 0 {
			t.Errorf("expected 0 recent requests, got %d", report.RecentRequests)
		}
	})

	t.Run("reports drift once deviated readings accumulate", func(t *testing.T) {
		monitor, err := monitoring.New(testBaseline())
		if err != nil {
			t.Fatalf("failed to create monitor: %v", err)
		}
		for i := 0; i < 5; i++ {
			reading := monitoring.FeatureVector{"s_2": 963.9, "s_3": 1589.7}
			if err := monitor.Record(reading); err != nil {
				t.Fatalf("failed to record reading: %v", err)
			}
		}
		handler := &MonitoringHandler{Monitor: monitor}

		r := chi.NewRouter()
		r.Get("/api/v1/monitoring", handler.Status)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var report monitoring.Report
		if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !report.DriftDetected {
			t.Error("expected drift_detected to be true")
		}
		if report.RecentRequests != 5 {
			t.Errorf("expected 5 recent requests, got %d", report.RecentRequests)
		}
		if len(report.Metrics.DriftedFeatures) != 1 {
			t.Fatalf("expected 1 drifted feature, got %d", len(report.Metrics.DriftedFeatures))
		}
		if report.Metrics.DriftedFeatures[0].Feature != "s_2" {
			t.Errorf("expected s_2 to drift, got %s", report.Metrics.DriftedFeatures[0].Feature)
		}
		if report.Metrics.MaxDeviationPct != 50 {
			t.Errorf("expected max deviation 50, got %v", report.Metrics.MaxDeviationPct)
		}
	})

	t.Run("returns 503 without a monitor", func(t *testing.T) {
		handler := &MonitoringHandler{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring", nil)
		w := httptest.NewRecorder()
		handler.Status(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
	})
}

func TestMonitoringHandler_Reset(t *testing.T) {
	t.Run("clears the observation window", func(t *testing.T) {
		monitor, err := monitoring.New(testBaseline())
		if err != nil {
			t.Fatalf("failed to create monitor: %v", err)
		}
		for i := 0; i < 4; i++ {
			reading := monitoring.FeatureVector{"s_2": 642.6, "s_3": 1589.7}
			if err := monitor.Record(reading); err != nil {
				t.Fatalf("failed to record reading: %v", err)
			}
		}
		handler := &MonitoringHandler{Monitor: monitor}

		r := chi.NewRouter()
		r.Post("/api/v1/monitoring/reset", handler.Reset)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/monitoring/reset", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp map[string]any
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "Monitoring data cleared" {
			t.Errorf("unexpected status message: %v", resp["status"])
		}
		if resp["recent_requests"] != float64(0) {
			t.Errorf("expected 0 recent requests, got %v", resp["recent_requests"])
		}
		if monitor.Size() != 0 {
			t.Errorf("expected empty window after reset, got %d", monitor.Size())
		}
	})

	t.Run("returns 503 without a monitor", func(t *testing.T) {
		handler := &MonitoringHandler{}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/monitoring/reset", nil)
		w := httptest.NewRecorder()
		handler.Reset(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
	})
}
