package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for run records.
type PostgresConfig struct {
	DSN             string
	PageTable       string
	RunTable        string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Postgres writes page and run records into Postgres.
//
// Expected schema:
//
//	CREATE TABLE crawl_pages (
//	    run_id TEXT NOT NULL,
//	    url TEXT NOT NULL,
//	    outcome TEXT NOT NULL,
//	    error_text TEXT,
//	    duration_ms BIGINT NOT NULL,
//	    fetched_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE crawl_runs (
//	    run_id TEXT PRIMARY KEY,
//	    seed_url TEXT NOT NULL,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL,
//	    pages_visited INT NOT NULL,
//	    documents_emitted INT NOT NULL,
//	    batches_emitted INT NOT NULL,
//	    page_failures INT NOT NULL,
//	    succeeded BOOLEAN NOT NULL,
//	    error_text TEXT
//	);
type Postgres struct {
	pool      execCloser
	pageTable string
	runTable  string
}

// NewPostgres creates a Postgres-backed run store using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newPostgresWithPool(pool, cfg.PageTable, cfg.RunTable)
}

// NewPostgresWithPool constructs a store from an existing pool (primarily
// for testing).
func NewPostgresWithPool(pool execCloser, pageTable, runTable string) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newPostgresWithPool(pool, pageTable, runTable)
}

func newPostgresWithPool(pool execCloser, pageTable, runTable string) (*Postgres, error) {
	if pageTable == "" {
		pageTable = "crawl_pages"
	}
	if runTable == "" {
		runTable = "crawl_runs"
	}
	if !validTableName.MatchString(pageTable) {
		return nil, fmt.Errorf("invalid table name %q", pageTable)
	}
	if !validTableName.MatchString(runTable) {
		return nil, fmt.Errorf("invalid table name %q", runTable)
	}
	return &Postgres{
		pool:      pool,
		pageTable: pageTable,
		runTable:  runTable,
	}, nil
}

// RecordPage inserts one page row.
func (s *Postgres) RecordPage(ctx context.Context, rec PageRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, url, outcome, error_text, duration_ms, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6)`, s.pageTable)
	if _, err := s.pool.Exec(ctx, query,
		rec.RunID,
		rec.URL,
		string(rec.Outcome),
		rec.ErrorText,
		rec.DurationMs,
		rec.FetchedAt,
	); err != nil {
		return fmt.Errorf("insert page record: %w", err)
	}
	return nil
}

// RecordRun inserts one run summary row.
func (s *Postgres) RecordRun(ctx context.Context, rec RunRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	seed_url,
	started_at,
	finished_at,
	pages_visited,
	documents_emitted,
	batches_emitted,
	page_failures,
	succeeded,
	error_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.runTable)
	if _, err := s.pool.Exec(ctx, query,
		rec.RunID,
		rec.SeedURL,
		rec.Started,
		rec.Finished,
		rec.PagesVisited,
		rec.DocumentsEmitted,
		rec.BatchesEmitted,
		rec.PageFailures,
		rec.Succeeded,
		rec.ErrorText,
	); err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
