package crawler

import (
	"context"
	"net/url"
	"time"
)

// Fetcher retrieves a single URL and returns the body plus metadata.
// Implementations must not follow links; traversal belongs to the engine.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResponse, error)
}

// Parser extracts the title and outbound links from a page body.
// Relative hrefs are resolved against base.
type Parser interface {
	Parse(body []byte, base *url.URL) (ParseResult, error)
}

// ResultStore persists content records and crawl log entries.
// InsertResult must be atomic with respect to its own uniqueness checks:
// two callers racing on the same fingerprint must not both see Inserted.
type ResultStore interface {
	InsertResult(ctx context.Context, rec ContentRecord) (InsertStatus, error)
	AppendLog(ctx context.Context, entry LogEntry) error
	Close() error
}

// Hasher computes the content fingerprint used as the dedup key.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Processor runs the fetch-and-extract pipeline for one URL.
type Processor interface {
	Process(ctx context.Context, rawURL string) Result
}

// Recorder is the result sink the engine writes outcomes through.
type Recorder interface {
	Record(ctx context.Context, rawURL, title string, body []byte, sourceHost string) (InsertStatus, error)
	Log(ctx context.Context, rawURL string, status LogStatus, errDetail string) error
}
