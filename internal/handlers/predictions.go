package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/predmaint/rulserve/internal/database"
)

// PredictionsHandler serves the persisted prediction history.
type PredictionsHandler struct {
	Store database.Store
}

// List returns paginated prediction records, newest first. Supported query
// parameters: limit, offset, status, since (RFC3339).
func (h *PredictionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "prediction store not configured")
		return
	}

	opts := database.PredictionListOptions{Limit: 50}
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 500]")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		opts.Offset = n
	}
	opts.Status = q.Get("status")
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		opts.Since = &ts
	}

	recs, total, err := h.Store.ListPredictions(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []database.PredictionRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"predictions": recs,
		"total":       total,
		"limit":       opts.Limit,
		"offset":      opts.Offset,
	})
}
