package store

import (
	"context"

	pgx "github.com/jackc/pgx/v5"

	"github.com/citypulse/trafficguide/internal/models"
)

// Store defines the interface for analysis audit storage
type Store interface {
	SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error
	RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error)
	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a store instance backed by Postgres when a database is
// configured, in-memory otherwise
func New(db Database) Store {
	if db.IsConfigured() {
		return NewPostgresStore(db)
	}
	return NewInMemoryStore(defaultMemoryCapacity)
}
