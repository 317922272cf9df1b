// Package postgres provides a Postgres-backed ResultStore.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// uniqueViolation is the Postgres error code for unique constraint hits.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS crawl_results (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	title TEXT,
	content_hash TEXT NOT NULL UNIQUE,
	ip_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crawl_logs (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Config controls the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store persists content records and crawl logs in Postgres. The UNIQUE
// constraints on url and content_hash are the dedup enforcement point:
// two workers racing on the same fingerprint cannot both insert.
type Store struct {
	pool execCloser
}

// New connects a pool and bootstraps the schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{pool: pool}
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		s.pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// NewWithPool constructs a Store from an existing pool (for testing).
// Schema bootstrap is skipped.
func NewWithPool(pool execCloser) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// InsertResult inserts one content record, classifying unique-constraint
// violations by the constraint that fired.
func (s *Store) InsertResult(ctx context.Context, rec crawler.ContentRecord) (crawler.InsertStatus, error) {
	const query = `
INSERT INTO crawl_results (url, title, content_hash, ip_address, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, rec.URL, rec.Title, rec.ContentHash, rec.SourceHost, rec.CreatedAt)
	if err == nil {
		return crawler.Inserted, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "content_hash") {
			return crawler.DuplicateContent, nil
		}
		return crawler.DuplicateURL, nil
	}
	return 0, fmt.Errorf("insert result: %w", err)
}

// AppendLog inserts one crawl log row.
func (s *Store) AppendLog(ctx context.Context, entry crawler.LogEntry) error {
	const query = `
INSERT INTO crawl_logs (url, status, error, created_at)
VALUES ($1, $2, $3, $4)`

	errText := any(entry.ErrorDetail)
	if entry.ErrorDetail == "" {
		errText = nil
	}
	if _, err := s.pool.Exec(ctx, query, entry.URL, string(entry.Status), errText, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
