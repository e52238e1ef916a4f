package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// It automatically creates the parent directory if it doesn't exist.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	return &SQLiteStore{db: db}, nil
}

// Migrate creates tables if they don't exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertPrediction inserts a new prediction record.
func (s *SQLiteStore) InsertPrediction(ctx context.Context, rec PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, timestamp, rul, status, confidence, model_version, features_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, rec.RUL, rec.Status, rec.Confidence, rec.ModelVersion, rec.FeaturesJSON,
	)
	return err
}

// ListPredictions returns paginated prediction records with optional filters.
func (s *SQLiteStore) ListPredictions(ctx context.Context, opts PredictionListOptions) ([]PredictionRecord, int64, error) {
	var conditions []string
	var args []interface{}

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *opts.Since)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM predictions %s", where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Fetch page
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset

	query := fmt.Sprintf(
		"SELECT id, timestamp, rul, status, confidence, model_version, features_json FROM predictions %s ORDER BY timestamp DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.RUL, &r.Status, &r.Confidence, &r.ModelVersion, &r.FeaturesJSON); err != nil {
			return nil, 0, err
		}
		recs = append(recs, r)
	}
	return recs, total, rows.Err()
}

// GetPrediction returns a single prediction record by ID.
func (s *SQLiteStore) GetPrediction(ctx context.Context, id string) (*PredictionRecord, error) {
	var r PredictionRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT id, timestamp, rul, status, confidence, model_version, features_json FROM predictions WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Timestamp, &r.RUL, &r.Status, &r.Confidence, &r.ModelVersion, &r.FeaturesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &r, err
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	rul REAL NOT NULL,
	status TEXT NOT NULL,
	confidence TEXT NOT NULL DEFAULT '',
	model_version TEXT NOT NULL DEFAULT '',
	features_json TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions(status);
`
