package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens a connection to a PostgreSQL database.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &PostgresStore{db: db}, nil
}

// Migrate creates tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, postgresSchema)
	return err
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InsertPrediction inserts a new prediction record.
func (s *PostgresStore) InsertPrediction(ctx context.Context, rec PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, timestamp, rul, status, confidence, model_version, features_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Timestamp, rec.RUL, rec.Status, rec.Confidence, rec.ModelVersion, rec.FeaturesJSON,
	)
	return err
}

// ListPredictions returns paginated prediction records with optional filters.
func (s *PostgresStore) ListPredictions(ctx context.Context, opts PredictionListOptions) ([]PredictionRecord, int64, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	if opts.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, opts.Status)
		argIdx++
	}
	if opts.Since != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM predictions %s", where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT id, timestamp, rul, status, confidence, model_version, features_json FROM predictions %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit, opts.Offset)

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
func (s *PostgresStore) GetPrediction(ctx context.Context, id string) (*PredictionRecord, error) {
	var r PredictionRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT id, timestamp, rul, status, confidence, model_version, features_json FROM predictions WHERE id = $1",
		id,
	).Scan(&r.ID, &r.Timestamp, &r.RUL, &r.Status, &r.Confidence, &r.ModelVersion, &r.FeaturesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &r, err
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	rul DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	confidence TEXT NOT NULL DEFAULT '',
	model_version TEXT NOT NULL DEFAULT '',
	features_json TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions(status);
`
