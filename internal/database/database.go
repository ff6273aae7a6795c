package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citypulse/trafficguide/config"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/metrics"
)

// DB wraps a pgx connection pool. A nil pool means the service runs on the
// in-memory audit store only.
type DB struct {
	pool *pgxpool.Pool
	cfg  config.DatabaseConfig
}

// New creates a new database connection
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set; using in-memory analysis store only")
		return &DB{pool: nil, cfg: cfg}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug("Database connection established")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// The stats goroutine lives with the caller's ctx, not the connect
	// timeout, which is done as soon as New returns.
	db := &DB{pool: pool, cfg: cfg}
	go db.collectMetrics(ctx)

	logger.Info("Database connection established",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)
	return db, nil
}

// Close closes the database connection
func (d *DB) Close(ctx context.Context) {
	if d.pool != nil {
		d.pool.Close()
		logger.Info("Database connection closed")
	}
}

// poolStatsInterval is how often pool statistics are reported
var poolStatsInterval = 30 * time.Second

// collectMetrics periodically reports pool statistics
func (d *DB) collectMetrics(ctx context.Context) {
	if d.pool == nil {
		return
	}

	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := d.pool.Stat()
			metrics.SetDBConnectionsActive(float64(stat.AcquiredConns()))
		}
	}
}

// Exec executes a statement
func (d *DB) Exec(ctx context.Context, sql string, args ...any) error {
	if d.pool == nil {
		return nil
	}

	start := time.Now()
	defer func() {
		logger.Debug("Database exec", "sql", sql, "duration_ms", time.Since(start).Milliseconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx, sql, args...)

	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database exec failed", "error", err, "sql", sql)
	}
	metrics.RecordDBQuery("exec", status)

	return err
}

// Query executes a query and returns rows
func (d *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if d.pool == nil {
		return nil, errors.New("db not configured")
	}

	start := time.Now()
	defer func() {
		logger.Debug("Database query", "sql", sql, "duration_ms", time.Since(start).Milliseconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx, sql, args...)

	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database query failed", "error", err, "sql", sql)
	}
	metrics.RecordDBQuery("query", status)

	return rows, err
}

// Health checks database connectivity
func (d *DB) Health(ctx context.Context) error {
	if d.pool == nil {
		return errors.New("database not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.pool.Ping(ctx)
}

// IsConfigured returns true if a database is connected
func (d *DB) IsConfigured() bool {
	return d.pool != nil
}
