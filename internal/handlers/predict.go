package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/predmaint/rulserve/internal/database"
	"github.com/predmaint/rulserve/internal/features"
	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/model"
	"github.com/predmaint/rulserve/internal/monitoring"
)

// PredictHandler serves RUL predictions and feeds the drift monitor.
type PredictHandler struct {
	Model    *model.Regressor
	Monitor  *monitoring.Monitor
	Baseline monitoring.Baseline
	Store    database.Store
	Metrics  *metrics.Metrics
	Version  string
}

// PredictionResponse is the JSON body returned for each prediction.
type PredictionResponse struct {
	RUL          float64 `json:"RUL"`
	Status       string  `json:"status"`
	Confidence   string  `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// Predict evaluates the model for one engine reading.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.Model == nil || !h.Model.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	raw, err := decodeReading(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	monitored := features.Monitored(raw)
	engineered := features.Engineer(monitored, h.Baseline)
	sample := features.Columns(engineered, h.Model.FeatureColumns())

	rul, err := h.Model.Predict(sample)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("prediction failed: %v", err))
		return
	}
	rul = math.Round(rul*100) / 100
	status, confidence := model.ClassifyRUL(rul)

	// The caller's response does not wait on monitoring or persistence.
	if h.Monitor != nil {
		if err := h.Monitor.Record(monitored); err != nil {
			var shapeErr *monitoring.ShapeError
			if errors.As(err, &shapeErr) {
				// The boundary validated the reading, so this indicates a
				// baseline/schema mismatch worth surfacing loudly.
				slog.Error("monitoring rejected validated reading", "error", err)
			}
		}
	}
	h.recordPrediction(r, monitored, rul, status, confidence)
	if h.Metrics != nil {
		h.Metrics.ObservePrediction(status, rul)
	}

	writeJSON(w, http.StatusOK, PredictionResponse{
		RUL:          rul,
		Status:       status,
		Confidence:   confidence,
		ModelVersion: h.Version,
	})
}

// recordPrediction persists the served prediction; failures are logged,
// never surfaced to the caller.
func (h *PredictHandler) recordPrediction(r *http.Request, monitored monitoring.FeatureVector, rul float64, status, confidence string) {
	if h.Store == nil {
		return
	}
	featJSON, err := json.Marshal(monitored)
	if err != nil {
		slog.Error("marshal prediction features", "error", err)
		return
	}
	rec := database.PredictionRecord{
		RUL:          rul,
		Status:       status,
		Confidence:   confidence,
		ModelVersion: h.Version,
		FeaturesJSON: string(featJSON),
	}
	if err := h.Store.InsertPrediction(r.Context(), rec); err != nil {
		slog.Error("persist prediction", "error", err)
	}
}

// decodeReading parses and validates the raw sensor payload: every field
// of the training schema must be present and numeric.
func decodeReading(r *http.Request) (monitoring.FeatureVector, error) {
	var payload map[string]float64
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	reading := make(monitoring.FeatureVector, len(payload))
	for _, field := range features.RawFields() {
		val, ok := payload[field]
		if !ok {
			return nil, fmt.Errorf("missing required field %q", field)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("field %q has a non-finite value", field)
		}
		reading[field] = val
	}
	return reading, nil
}
