// Package dedup implements the result sink with content deduplication.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// Recorder writes crawl outcomes through to a ResultStore. Fingerprints
// seen during this run are cached in-process, so repeat content is
// answered without a store round-trip; the store's unique constraints
// remain the authority across runs and racing writers.
type Recorder struct {
	store  crawler.ResultStore
	hasher crawler.Hasher
	clock  crawler.Clock
	logger *zap.Logger
	seen   sync.Map
}

// New constructs a Recorder.
func New(store crawler.ResultStore, hasher crawler.Hasher, clock crawler.Clock, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		hasher: hasher,
		clock:  clock,
		logger: logger,
	}
}

// Record fingerprints body and inserts a content record unless the
// fingerprint was already seen. Duplicate content and duplicate URLs
// are reported as statuses, not errors.
func (r *Recorder) Record(
	ctx context.Context,
	rawURL, title string,
	body []byte,
	sourceHost string,
) (crawler.InsertStatus, error) {
	hash, err := r.hasher.Hash(body)
	if err != nil {
		return 0, fmt.Errorf("fingerprint body: %w", err)
	}

	if _, loaded := r.seen.LoadOrStore(hash, struct{}{}); loaded {
		r.logger.Debug("fingerprint already seen in-process",
			zap.String("url", rawURL),
			zap.String("hash", hash),
		)
		return crawler.DuplicateContent, nil
	}

	status, err := r.store.InsertResult(ctx, crawler.ContentRecord{
		URL:         rawURL,
		Title:       title,
		ContentHash: hash,
		SourceHost:  sourceHost,
		CreatedAt:   r.clock.Now(),
	})
	if err != nil {
		// Leave the hash cached: retrying the same body would hit the
		// same constraint anyway.
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return status, nil
}

// Log appends one crawl log entry. Unconditional per fetch attempt.
func (r *Recorder) Log(ctx context.Context, rawURL string, status crawler.LogStatus, errDetail string) error {
	entry := crawler.LogEntry{
		URL:         rawURL,
		Status:      status,
		ErrorDetail: errDetail,
		CreatedAt:   r.clock.Now(),
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
