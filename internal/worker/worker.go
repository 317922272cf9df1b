// Package worker implements the fetch-and-extract pipeline for one URL.
package worker

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

// Worker fetches a page, extracts its title and outbound links, and
// classifies the outcome. It has no side effects: persistence belongs
// to the engine's recorder, which keeps this type independently
// testable.
type Worker struct {
	fetcher crawler.Fetcher
	parser  crawler.Parser
	host    string
	logger  *zap.Logger
}

// New constructs a Worker restricted to links on host (exact match).
func New(fetcher crawler.Fetcher, parser crawler.Parser, host string, logger *zap.Logger) *Worker {
	return &Worker{
		fetcher: fetcher,
		parser:  parser,
		host:    host,
		logger:  logger,
	}
}

// Process runs the pipeline for rawURL. Fetch and parse failures are
// converted into Result.Err with an empty link set; nothing propagates
// past this boundary.
func (w *Worker) Process(ctx context.Context, rawURL string) crawler.Result {
	res := crawler.Result{URL: rawURL}

	base, err := url.Parse(rawURL)
	if err != nil {
		res.Err = fmt.Errorf("parse url: %w", err)
		return res
	}
	res.SourceHost = base.Hostname()

	resp, err := w.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		res.Err = fmt.Errorf("fetch: %w", err)
		return res
	}
	w.logger.Debug("page fetched",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	)

	parsed, err := w.parser.Parse(resp.Body, base)
	if err != nil {
		res.Err = fmt.Errorf("parse body: %w", err)
		return res
	}

	res.Title = parsed.Title
	res.Body = resp.Body
	res.Links = w.filterLinks(parsed.Links)
	return res
}

// filterLinks normalizes discovered links and keeps only those on the
// crawl's target host. Duplicates within one page collapse here; the
// frontier handles cross-page duplicates.
func (w *Worker) filterLinks(links []string) []string {
	var kept []string
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		normalized, err := crawler.NormalizeURL(link)
		if err != nil {
			continue
		}
		if !crawler.SameHost(normalized, w.host) {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		kept = append(kept, normalized)
	}
	return kept
}
