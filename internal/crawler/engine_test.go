package crawler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crawlkit/crawlkit/internal/clock/system"
	"github.com/crawlkit/crawlkit/internal/crawler"
	"github.com/crawlkit/crawlkit/internal/dedup"
	"github.com/crawlkit/crawlkit/internal/hash/xxhash"
	"github.com/crawlkit/crawlkit/internal/id/uuid"
	"github.com/crawlkit/crawlkit/internal/storage/memory"
)

type fakePage struct {
	body  string
	links []string
	err   error
}

// fakeProcessor serves canned pages and tracks dispatch concurrency.
type fakeProcessor struct {
	mu          sync.Mutex
	pages       map[string]fakePage
	calls       []string
	inFlight    int
	maxInFlight int
	workDelay   time.Duration
	onCall      func(rawURL string)
}

func (p *fakeProcessor) Process(_ context.Context, rawURL string) crawler.Result {
	p.mu.Lock()
	p.calls = append(p.calls, rawURL)
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	onCall := p.onCall
	p.mu.Unlock()

	if onCall != nil {
		onCall(rawURL)
	}
	if p.workDelay > 0 {
		time.Sleep(p.workDelay)
	}

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	page, ok := p.pages[rawURL]
	if !ok {
		return crawler.Result{URL: rawURL, Err: errors.New("connection refused")}
	}
	if page.err != nil {
		return crawler.Result{URL: rawURL, Err: page.err}
	}
	host, err := crawler.HostOf(rawURL)
	if err != nil {
		return crawler.Result{URL: rawURL, Err: err}
	}
	return crawler.Result{
		URL:        rawURL,
		Title:      "Page",
		Body:       []byte(page.body),
		SourceHost: host,
		Links:      page.links,
	}
}

func (p *fakeProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProcessor) uniqueCalls() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.calls))
	for _, c := range p.calls {
		out[c]++
	}
	return out
}

func newTestEngine(
	t *testing.T,
	cfg crawler.EngineConfig,
	proc crawler.Processor,
	store *memory.Store,
) *crawler.Engine {
	t.Helper()
	rec := dedup.New(store, xxhash.New(), system.New(), zap.NewNop())
	engine, err := crawler.NewEngine(cfg, proc, rec, uuid.New(), zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestEngineSinglePageBudget(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	proc := &fakeProcessor{pages: map[string]fakePage{
		seed: {body: "<html>seed</html>", links: []string{"https://example.com/next"}},
	}}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   1,
		MaxWorkers: 5,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()))

	require.Equal(t, 1, proc.callCount(), "budget of one page must stop after the seed")
	logs := store.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, seed, logs[0].URL)
	require.Equal(t, crawler.StatusSuccess, logs[0].Status)
	require.Len(t, store.Results(), 1)
}

func TestEngineDuplicateContentStoredOnce(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	copyURL := "https://example.com/copy"
	body := "<html>identical body</html>"
	proc := &fakeProcessor{pages: map[string]fakePage{
		seed:    {body: body, links: []string{copyURL}},
		copyURL: {body: body},
	}}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 2,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()))

	logs := store.Logs()
	require.Len(t, logs, 2, "both fetches must be logged")
	for _, entry := range logs {
		require.Equal(t, crawler.StatusSuccess, entry.Status)
		require.Empty(t, entry.ErrorDetail)
	}

	results := store.Results()
	require.Len(t, results, 1, "identical bodies must dedup to one record")
	require.Equal(t, seed, results[0].URL, "first URL to resolve owns the fingerprint")
}

func TestEngineSeedFetchError(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	proc := &fakeProcessor{pages: map[string]fakePage{
		seed: {err: errors.New("dial tcp: connection refused")},
	}}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 3,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()), "page failures must not abort the crawl")

	require.Equal(t, 1, proc.callCount())
	logs := store.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, crawler.StatusError, logs[0].Status)
	require.NotEmpty(t, logs[0].ErrorDetail)
	require.Empty(t, store.Results())
}

func TestEngineBatchSizing(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	links := []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/4",
		"https://example.com/5",
	}
	pages := map[string]fakePage{seed: {body: "seed", links: links}}
	for i, l := range links {
		pages[l] = fakePage{body: l + "#" + string(rune('a'+i))}
	}
	proc := &fakeProcessor{pages: pages, workDelay: 20 * time.Millisecond}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 3,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()))

	require.Equal(t, 6, proc.callCount(), "seed plus five discovered pages")
	require.LessOrEqual(t, proc.maxInFlight, 3, "no more than max_workers fetches in flight")
	for url, n := range proc.uniqueCalls() {
		require.Equal(t, 1, n, "url %s dispatched more than once", url)
	}
	require.Len(t, store.Logs(), 6)
}

func TestEngineBudgetCheckedPerBatch(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	links := []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	}
	pages := map[string]fakePage{seed: {body: "seed", links: links}}
	for _, l := range links {
		// Every page links onward so a third batch would have work.
		pages[l] = fakePage{body: "body of " + l, links: []string{"https://example.com/deeper" + l[len(l)-1:]}}
	}
	proc := &fakeProcessor{pages: pages}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   2,
		MaxWorkers: 3,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()))

	// Batch one dispatches the seed (visited=1 < 2). Batch two takes a
	// full cohort of three, overshooting the budget mid-batch. No batch
	// three may start.
	require.Equal(t, 4, proc.callCount())
}

func TestEngineNoDuplicateDispatchOnCycles(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	a := "https://example.com/a"
	b := "https://example.com/b"
	proc := &fakeProcessor{pages: map[string]fakePage{
		seed: {body: "seed", links: []string{a, b}},
		a:    {body: "a", links: []string{b, seed}},
		b:    {body: "b", links: []string{a, seed}},
	}}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 2,
	}, proc, store)

	require.NoError(t, engine.Run(context.Background()))

	require.Equal(t, 3, proc.callCount())
	for url, n := range proc.uniqueCalls() {
		require.Equal(t, 1, n, "url %s dispatched more than once", url)
	}
}

func TestEngineCancellationStopsNewBatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	seed := "https://example.com/"
	proc := &fakeProcessor{
		pages: map[string]fakePage{
			seed: {body: "seed", links: []string{"https://example.com/next"}},
			"https://example.com/next": {body: "next"},
		},
		onCall: func(string) { cancel() },
	}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 2,
	}, proc, store)

	require.NoError(t, engine.Run(ctx))

	require.Equal(t, 1, proc.callCount(), "cancellation must stop before the next batch")
	require.Len(t, store.Logs(), 1, "the in-flight batch still gets persisted")
}

func TestEnginePreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProcessor{pages: map[string]fakePage{}}
	store := memory.NewStore()
	engine := newTestEngine(t, crawler.EngineConfig{
		Seed:       "https://example.com/",
		MaxPages:   10,
		MaxWorkers: 2,
	}, proc, store)

	require.NoError(t, engine.Run(ctx))
	require.Zero(t, proc.callCount())
	require.Empty(t, store.Logs())
}

type failingLogRecorder struct{}

func (failingLogRecorder) Record(context.Context, string, string, []byte, string) (crawler.InsertStatus, error) {
	return crawler.Inserted, nil
}

func (failingLogRecorder) Log(context.Context, string, crawler.LogStatus, string) error {
	return errors.New("log table unreachable")
}

func TestEngineLogFailureIsFatal(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	proc := &fakeProcessor{pages: map[string]fakePage{seed: {body: "seed"}}}
	engine, err := crawler.NewEngine(crawler.EngineConfig{
		Seed:       seed,
		MaxPages:   10,
		MaxWorkers: 1,
	}, proc, failingLogRecorder{}, uuid.New(), zap.NewNop())
	require.NoError(t, err)

	err = engine.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "append crawl log")
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{pages: map[string]fakePage{}}
	rec := dedup.New(memory.NewStore(), xxhash.New(), system.New(), zap.NewNop())

	_, err := crawler.NewEngine(crawler.EngineConfig{
		Seed: "not a url", MaxPages: 1, MaxWorkers: 1,
	}, proc, rec, uuid.New(), zap.NewNop())
	require.Error(t, err, "invalid seed must fail before any fetch")

	_, err = crawler.NewEngine(crawler.EngineConfig{
		Seed: "https://example.com", MaxPages: 1, MaxWorkers: 0,
	}, proc, rec, uuid.New(), zap.NewNop())
	require.Error(t, err)

	_, err = crawler.NewEngine(crawler.EngineConfig{
		Seed: "https://example.com", MaxPages: 0, MaxWorkers: 1,
	}, proc, rec, uuid.New(), zap.NewNop())
	require.Error(t, err)
}
