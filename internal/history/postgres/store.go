// Package postgres provides a Postgres-backed run history.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for run rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store writes run results into Postgres.
type Store struct {
	pool  pgxIface
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
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
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool pgxIface, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "site_runs"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordRun inserts one run row.
func (s *Store) RecordRun(ctx context.Context, result scraper.RunResult) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	site,
	url,
	success,
	pages_scraped,
	started_at,
	finished_at,
	error_message
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.table)

	_, err := s.pool.Exec(ctx, query,
		result.Site,
		result.URL,
		result.Success,
		result.PagesScraped,
		result.StartedAt,
		result.FinishedAt,
		result.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first, optionally filtered by
// site name.
func (s *Store) ListRuns(ctx context.Context, site string, limit int) ([]scraper.RunResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT site, url, success, pages_scraped, started_at, finished_at, error_message
FROM %s
WHERE ($1 = '' OR site = $1)
ORDER BY started_at DESC
LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, site, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var results []scraper.RunResult
	for rows.Next() {
		var r scraper.RunResult
		if err := rows.Scan(
			&r.Site,
			&r.URL,
			&r.Success,
			&r.PagesScraped,
			&r.StartedAt,
			&r.FinishedAt,
			&r.ErrorText,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return results, nil
}
