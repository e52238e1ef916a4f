package database

import (
	"context"
	"time"
)

// Store defines the prediction history database interface.
type Store interface {
	// Migrate runs schema migrations.
	Migrate(ctx context.Context) error
	// Close closes the database connection.
	Close() error

	// Prediction log
	InsertPrediction(ctx context.Context, rec PredictionRecord) error
	ListPredictions(ctx context.Context, opts PredictionListOptions) ([]PredictionRecord, int64, error)
	GetPrediction(ctx context.Context, id string) (*PredictionRecord, error)
}

// PredictionRecord is one served prediction: the input snapshot and what
// the model returned for it.
type PredictionRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	RUL          float64   `json:"rul"`
	Status       string    `json:"status"`     // Healthy, Warning, Critical
	Confidence   string    `json:"confidence"` // High, Medium
	ModelVersion string    `json:"modelVersion"`
	FeaturesJSON string    `json:"featuresJson"` // raw input features as JSON
}

// PredictionListOptions controls pagination and filtering for history queries.
type PredictionListOptions struct {
	Offset int
	Limit  int
	Status string
	Since  *time.Time
}
