// Package crawler defines core types shared across subsystems.
package crawler

import "time"

// LogStatus classifies the outcome of a single fetch attempt.
type LogStatus string

// Log status values persisted in the crawl log.
const (
	StatusSuccess LogStatus = "success"
	StatusError   LogStatus = "error"
)

// NoTitle is recorded when a document carries no <title> element.
const NoTitle = "No title"

// ContentRecord is the row stored for each page with novel content.
// ContentHash is unique across all records: the first URL to produce a
// given fingerprint is the only one ever stored.
type ContentRecord struct {
	URL         string
	Title       string
	ContentHash string
	SourceHost  string
	CreatedAt   time.Time
}

// LogEntry is appended for every fetch attempt, duplicate or not.
type LogEntry struct {
	URL         string
	Status      LogStatus
	ErrorDetail string
	CreatedAt   time.Time
}

// InsertStatus reports how the store handled a content record.
type InsertStatus int

const (
	// Inserted means the record was stored as new.
	Inserted InsertStatus = iota
	// DuplicateContent means another URL already produced this fingerprint.
	DuplicateContent
	// DuplicateURL means this URL was already recorded.
	DuplicateURL
)

// String returns a loggable name for the status.
func (s InsertStatus) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case DuplicateContent:
		return "duplicate_content"
	case DuplicateURL:
		return "duplicate_url"
	default:
		return "unknown"
	}
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// ParseResult holds what the Parser extracted from a page body.
type ParseResult struct {
	Title string
	Links []string
}

// Result is what a worker hands back to the scheduler for one URL.
// Err is set for any fetch or parse failure; failures never propagate
// past the worker boundary as anything but this value.
type Result struct {
	URL        string
	Title      string
	Body       []byte
	SourceHost string
	Links      []string
	Err        error
}
