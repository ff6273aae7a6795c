package store

import (
	"context"
	"fmt"

	"github.com/citypulse/trafficguide/internal/models"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the analyses table when it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			departure_time TIMESTAMPTZ NOT NULL,
			level TEXT NOT NULL,
			score INT NOT NULL,
			triggered_rules TEXT[] NOT NULL DEFAULT '{}',
			recommendation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure analyses schema: %w", err)
	}
	return nil
}

// SaveAnalysis inserts one audit record
func (s *PostgresStore) SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	query := `
		INSERT INTO analyses (
			id, origin, destination, departure_time, level, score,
			triggered_rules, recommendation, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (id) DO NOTHING
	`

	err := s.db.Exec(ctx, query,
		record.ID, record.Origin, record.Destination, record.DepartureTime,
		string(record.Level), record.Score, record.TriggeredRules,
		record.Recommendation, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", record.ID, err)
	}
	return nil
}

// RecentAnalyses returns up to limit records, newest first
func (s *PostgresStore) RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, origin, destination, departure_time, level, score,
			   triggered_rules, recommendation, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		var level string
		if err := rows.Scan(
			&rec.ID, &rec.Origin, &rec.Destination, &rec.DepartureTime,
			&level, &rec.Score, &rec.TriggeredRules, &rec.Recommendation,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Level = models.CongestionLevel(level)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAnalysis retrieves a single record by ID
func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	query := `
		SELECT id, origin, destination, departure_time, level, score,
			   triggered_rules, recommendation, created_at
		FROM analyses
		WHERE id = $1
	`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query analysis %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var rec models.AnalysisRecord
	var level string
	if err := rows.Scan(
		&rec.ID, &rec.Origin, &rec.Destination, &rec.DepartureTime,
		&level, &rec.Score, &rec.TriggeredRules, &rec.Recommendation,
		&rec.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	rec.Level = models.CongestionLevel(level)
	return &rec, nil
}

// Health checks database connectivity
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}
