// Package memory provides an in-memory ResultStore for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// Store keeps records and logs in maps guarded by a mutex. It applies
// the same uniqueness rules as the SQL stores.
type Store struct {
	mu      sync.Mutex
	byURL   map[string]crawler.ContentRecord
	byHash  map[string]string // hash -> url that owns it
	logs    []crawler.LogEntry
	ordered []crawler.ContentRecord
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		byURL:  make(map[string]crawler.ContentRecord),
		byHash: make(map[string]string),
	}
}

// InsertResult applies check-then-insert under one lock, mirroring the
// SQL stores' constraint behavior.
func (s *Store) InsertResult(_ context.Context, rec crawler.ContentRecord) (crawler.InsertStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[rec.ContentHash]; ok {
		return crawler.DuplicateContent, nil
	}
	if _, ok := s.byURL[rec.URL]; ok {
		return crawler.DuplicateURL, nil
	}
	s.byURL[rec.URL] = rec
	s.byHash[rec.ContentHash] = rec.URL
	s.ordered = append(s.ordered, rec)
	return crawler.Inserted, nil
}

// AppendLog records one log entry.
func (s *Store) AppendLog(_ context.Context, entry crawler.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Results returns stored records in insertion order.
func (s *Store) Results() []crawler.ContentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]crawler.ContentRecord(nil), s.ordered...)
}

// Logs returns appended log entries in order.
func (s *Store) Logs() []crawler.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]crawler.LogEntry(nil), s.logs...)
}
