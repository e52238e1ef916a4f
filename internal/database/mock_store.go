package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory implementation of the Store interface for testing.
type MockStore struct {
	mu          sync.Mutex
	predictions []PredictionRecord
}

// NewMockStore returns an initialized MockStore.
func NewMockStore() *MockStore {
	return &MockStore{predictions: []PredictionRecord{}}
}

// Migrate is a no-op for the mock store.
func (m *MockStore) Migrate(_ context.Context) error {
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// InsertPrediction appends a prediction record to the in-memory slice.
func (m *MockStore) InsertPrediction(_ context.Context, rec PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	m.predictions = append(m.predictions, rec)
	return nil
}

// ListPredictions returns records with optional filtering and pagination,
// newest first.
func (m *MockStore) ListPredictions(_ context.Context, opts PredictionListOptions) ([]PredictionRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []PredictionRecord
	for _, r := range m.predictions {
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		if opts.Since != nil && r.Timestamp.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	total := int64(len(filtered))

	start := opts.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return filtered[start:end], total, nil
}

// GetPrediction returns the record with the given ID, or nil if not found.
func (m *MockStore) GetPrediction(_ context.Context, id string) (*PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.predictions {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}
