// Package sqlite provides a SQLite-backed ResultStore.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crawlkit/crawlkit/internal/crawler"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	title TEXT,
	content_hash TEXT NOT NULL UNIQUE,
	ip_address TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS crawl_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	created_at TIMESTAMP NOT NULL
);`

// Store persists content records and crawl logs in a SQLite file.
// Uniqueness on url and content_hash is enforced by the schema, same
// contract as the Postgres store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and bootstraps the schema.
// WAL is enabled; writes are serialized through a single connection,
// which is all SQLite supports anyway.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// InsertResult inserts one content record, classifying unique-constraint
// violations by the column named in the driver error.
func (s *Store) InsertResult(ctx context.Context, rec crawler.ContentRecord) (crawler.InsertStatus, error) {
	const query = `
INSERT INTO crawl_results (url, title, content_hash, ip_address, created_at)
VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, rec.URL, rec.Title, rec.ContentHash, rec.SourceHost, rec.CreatedAt)
	if err == nil {
		return crawler.Inserted, nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "crawl_results.content_hash"):
		return crawler.DuplicateContent, nil
	case strings.Contains(msg, "crawl_results.url"):
		return crawler.DuplicateURL, nil
	}
	return 0, fmt.Errorf("insert result: %w", err)
}

// AppendLog inserts one crawl log row.
func (s *Store) AppendLog(ctx context.Context, entry crawler.LogEntry) error {
	const query = `
INSERT INTO crawl_logs (url, status, error, created_at)
VALUES (?, ?, ?, ?)`

	var errText any
	if entry.ErrorDetail != "" {
		errText = entry.ErrorDetail
	}
	if _, err := s.db.ExecContext(ctx, query, entry.URL, string(entry.Status), errText, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
