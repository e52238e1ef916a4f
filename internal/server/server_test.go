package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/predmaint/rulserve/internal/database"
	"github.com/predmaint/rulserve/internal/features"
	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/model"
	"github.com/predmaint/rulserve/internal/monitoring"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	artifact := model.Artifact{
		ModelType:      "gradient_boosting",
		Version:        "1.0-test",
		BaseScore:      90,
		FeatureColumns: []string{"s_2_mean"},
		Trees: []model.Tree{
			{Nodes: []model.Node{{Left: -1, Right: -1, Value: 0}}},
		},
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("failed to marshal artifact: %v", err)
	}
	m := model.New()
	if err := m.Load(data); err != nil {
		t.Fatalf("failed to load artifact: %v", err)
	}

	monitor, err := monitoring.New(monitoring.Baseline{"s_2": 642.6})
	if err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}

	srv := New(Config{
		Model:        m,
		Monitor:      monitor,
		Baseline:     monitoring.Baseline{"s_2": 642.6},
		Store:        database.NewMockStore(),
		Metrics:      metrics.New(),
		ModelVersion: "1.0-test",
		EvalInterval: time.Minute,
	})
	t.Cleanup(func() {
		srv.Evaluator.Stop()
		srv.Hub.Stop()
	})

	return httptest.NewServer(srv.Router)
}

func testReadingBody(t *testing.T) []byte {
	t.Helper()
	reading := make(map[string]float64)
	for _, f := range features.RawFields() {
		reading[f] = 1.0
	}
	reading["s_2"] = 642.6
	body, err := json.Marshal(reading)
	if err != nil {
		t.Fatalf("failed to marshal reading: %v", err)
	}
	return body
}

func TestServer_Integration(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	tests := []struct {
		name           string
		method         string
		path           string
		body           []byte
		expectedStatus int
	}{
		{name: "GET /", method: http.MethodGet, path: "/", expectedStatus: http.StatusOK},
		{name: "GET /api/v1/health", method: http.MethodGet, path: "/api/v1/health", expectedStatus: http.StatusOK},
		{name: "POST /api/v1/predict", method: http.MethodPost, path: "/api/v1/predict", body: testReadingBody(t), expectedStatus: http.StatusOK},
		{name: "GET /api/v1/monitoring", method: http.MethodGet, path: "/api/v1/monitoring", expectedStatus: http.StatusOK},
		{name: "POST /api/v1/monitoring/reset", method: http.MethodPost, path: "/api/v1/monitoring/reset", expectedStatus: http.StatusOK},
		{name: "GET /api/v1/model-info", method: http.MethodGet, path: "/api/v1/model-info", expectedStatus: http.StatusOK},
		{name: "GET /api/v1/predictions", method: http.MethodGet, path: "/api/v1/predictions", expectedStatus: http.StatusOK},
		{name: "GET /metrics", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "GET unknown route", method: http.MethodGet, path: "/api/v1/nope", expectedStatus: http.StatusNotFound},
		{name: "POST predict with bad body", method: http.MethodPost, path: "/api/v1/predict", body: []byte(`{}`), expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, bytes.NewReader(tt.body))
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			if tt.body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
		})
	}
}

func TestServer_PredictFeedsMonitoringAndHistory(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/predict", "application/json", bytes.NewReader(testReadingBody(t)))
		if err != nil {
			t.Fatalf("predict request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
	}

	resp, err := http.Get(ts.URL + "/api/v1/monitoring")
	if err != nil {
		t.Fatalf("monitoring request failed: %v", err)
	}
	defer resp.Body.Close()

	var report monitoring.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.RecentRequests != 3 {
		t.Errorf("expected 3 recent requests, got %d", report.RecentRequests)
	}

	histResp, err := http.Get(ts.URL + "/api/v1/predictions")
	if err != nil {
		t.Fatalf("predictions request failed: %v", err)
	}
	defer histResp.Body.Close()

	var hist struct {
		Total int64 `json:"total"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&hist); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if hist.Total != 3 {
		t.Errorf("expected 3 persisted predictions, got %d", hist.Total)
	}
}

func TestServer_CORSHeaders(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/health", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	handler := CORS("http://a.example, http://b.example")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allows a listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://b.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://b.example" {
			t.Errorf("expected echoed origin, got %q", got)
		}
	})

	t.Run("omits the header for an unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin header, got %q", got)
		}
	})
}

func TestMaxBodySize(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	big := bytes.Repeat([]byte("a"), 2<<20)
	resp, err := http.Post(ts.URL+"/api/v1/predict", "application/json", bytes.NewReader(big))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 for oversized body, got %d", resp.StatusCode)
	}
}
