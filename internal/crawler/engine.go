package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EngineConfig holds the settings for one crawl run.
type EngineConfig struct {
	Seed       string
	MaxPages   int
	MaxWorkers int
	Delay      time.Duration
}

// Engine drives the crawl: it pulls cohorts from the frontier, fans them
// out to workers, waits at the batch barrier, persists every outcome,
// and feeds discovered links back in. All frontier mutation happens on
// the goroutine running Run.
type Engine struct {
	cfg      EngineConfig
	frontier *Frontier
	proc     Processor
	rec      Recorder
	idGen    IDGenerator
	logger   *zap.Logger

	stored     int
	duplicates int
	errors     int
}

// NewEngine validates the configuration and builds an Engine. The seed
// URL is normalized here; a seed that does not parse is a configuration
// error and fails before any fetch.
func NewEngine(
	cfg EngineConfig,
	proc Processor,
	rec Recorder,
	idGen IDGenerator,
	logger *zap.Logger,
) (*Engine, error) {
	seed, err := NormalizeURL(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url: %w", err)
	}
	cfg.Seed = seed
	if cfg.MaxWorkers <= 0 {
		return nil, fmt.Errorf("max workers must be > 0, got %d", cfg.MaxWorkers)
	}
	if cfg.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be > 0, got %d", cfg.MaxPages)
	}
	return &Engine{
		cfg:      cfg,
		frontier: NewFrontier(),
		proc:     proc,
		rec:      rec,
		idGen:    idGen,
		logger:   logger,
	}, nil
}

// Run executes the crawl until the frontier drains, the page budget is
// reached, or ctx is canceled. Per-page failures never abort the run;
// only a log-append failure does, since an unwritable log is a
// configuration problem rather than a page condition.
func (e *Engine) Run(ctx context.Context) error {
	runID, err := e.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger := e.logger.With(zap.String("crawl_id", runID))

	e.frontier.Offer(e.cfg.Seed)
	logger.Info("crawl starting",
		zap.String("seed", e.cfg.Seed),
		zap.Int("max_pages", e.cfg.MaxPages),
		zap.Int("max_workers", e.cfg.MaxWorkers),
		zap.Duration("delay", e.cfg.Delay),
	)

	// Budget and emptiness are evaluated once per batch, not per page,
	// so a batch that straddles the budget may overshoot by up to
	// MaxWorkers-1 pages.
	for ctx.Err() == nil && e.frontier.Len() > 0 && e.frontier.VisitedCount() < e.cfg.MaxPages {
		batch := e.frontier.TakeBatch(e.cfg.MaxWorkers)
		if len(batch) == 0 {
			break
		}
		TotalBatchesDispatched.Inc()
		logger.Debug("batch dispatched", zap.Int("size", len(batch)))

		for _, res := range e.runBatch(ctx, batch) {
			if err := e.handleResult(ctx, logger, res); err != nil {
				return err
			}
		}

		if !e.pause(ctx) {
			break
		}
	}

	logger.Info("crawl terminated",
		zap.Int("visited", e.frontier.VisitedCount()),
		zap.Int("stored", e.stored),
		zap.Int("duplicates", e.duplicates),
		zap.Int("errors", e.errors),
		zap.Int("frontier_remaining", e.frontier.Len()),
	)
	return nil
}

// runBatch fans the cohort out and blocks until every worker returns.
// No later batch starts while any fetch from this one is in flight.
func (e *Engine) runBatch(ctx context.Context, batch []string) []Result {
	out := make(chan Result, len(batch))
	var wg sync.WaitGroup
	for _, rawURL := range batch {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			out <- e.proc.Process(ctx, u)
		}(rawURL)
	}
	wg.Wait()
	close(out)

	results := make([]Result, 0, len(batch))
	for res := range out {
		results = append(results, res)
	}
	return results
}

func (e *Engine) handleResult(ctx context.Context, logger *zap.Logger, res Result) error {
	status := StatusSuccess
	detail := ""
	if res.Err != nil {
		status = StatusError
		detail = res.Err.Error()
	}
	if err := e.rec.Log(ctx, res.URL, status, detail); err != nil {
		return fmt.Errorf("append crawl log: %w", err)
	}

	if res.Err != nil {
		e.errors++
		TotalFetchErrors.Inc()
		logger.Warn("page failed", zap.String("url", res.URL), zap.Error(res.Err))
		return nil
	}

	TotalPagesFetched.Inc()
	insert, err := e.rec.Record(ctx, res.URL, res.Title, res.Body, res.SourceHost)
	if err != nil {
		// A store write failure loses one record, not the crawl.
		e.errors++
		logger.Error("record page failed", zap.String("url", res.URL), zap.Error(err))
	} else {
		switch insert {
		case Inserted:
			e.stored++
		case DuplicateContent:
			e.duplicates++
			TotalDuplicatesSkipped.Inc()
			logger.Info("duplicate content skipped", zap.String("url", res.URL))
		case DuplicateURL:
			logger.Warn("url already recorded", zap.String("url", res.URL))
		}
	}

	for _, link := range res.Links {
		if e.frontier.Offer(link) {
			TotalLinksDiscovered.Inc()
		}
	}
	return nil
}

// pause applies the inter-batch delay; returns false if ctx ended first.
func (e *Engine) pause(ctx context.Context) bool {
	if e.cfg.Delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(e.cfg.Delay):
		return true
	}
}
