package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/predmaint/rulserve/internal/model"
)

func TestHealthHandler_Check(t *testing.T) {
	t.Run("returns 200 when the model is loaded", func(t *testing.T) {
		handler := &HealthHandler{Model: testModel(t)}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		handler.Check(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp map[string]any
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("expected status ok, got %v", resp["status"])
		}
		if resp["model_loaded"] != true {
			t.Error("expected model_loaded to be true")
		}
		if resp["features"] != float64(2) {
			t.Errorf("expected 2 features, got %v", resp["features"])
		}
	})

	t.Run("returns 503 when the model is not loaded", func(t *testing.T) {
		handler := &HealthHandler{Model: model.New()}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		handler.Check(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
	})

	t.Run("returns 503 with a nil model", func(t *testing.T) {
		handler := &HealthHandler{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		handler.Check(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", w.Code)
		}
	})
}

func TestRoot(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Root(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["name"] == "" {
		t.Error("expected a non-empty API name")
	}
	endpoints, ok := resp["endpoints"].(map[string]any)
	if !ok {
		t.Fatal("expected an endpoints map")
	}
	for _, key := range []string{"predict", "health", "monitoring", "model-info", "predictions"} {
		if _, ok := endpoints[key]; !ok {
			t.Errorf("expected endpoint entry %q", key)
		}
	}
}
