package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crawlkit/crawlkit/internal/api"
	"github.com/crawlkit/crawlkit/internal/clock/system"
	"github.com/crawlkit/crawlkit/internal/config"
	"github.com/crawlkit/crawlkit/internal/crawler"
	"github.com/crawlkit/crawlkit/internal/dedup"
	collyfetcher "github.com/crawlkit/crawlkit/internal/fetcher/colly"
	"github.com/crawlkit/crawlkit/internal/hash/xxhash"
	"github.com/crawlkit/crawlkit/internal/id/uuid"
	"github.com/crawlkit/crawlkit/internal/logging"
	goqueryparser "github.com/crawlkit/crawlkit/internal/parser/goquery"
	"github.com/crawlkit/crawlkit/internal/storage/postgres"
	"github.com/crawlkit/crawlkit/internal/storage/sqlite"
	"github.com/crawlkit/crawlkit/internal/worker"
)

type crawlFlags struct {
	url        string
	maxPages   int
	maxWorkers int
	delay      int
	dsn        string
}

// newCrawlCmd creates the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Starts a crawl from the configured seed URL",
		Long: `Runs a bounded crawl: pages are fetched in fixed-size batches, links
are followed within the seed's host only, and results land in the
configured database. Ctrl-C stops the crawl before the next batch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.url, "url", "", "seed URL (overrides crawler.start_url)")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "page budget (overrides crawler.max_pages)")
	cmd.Flags().IntVar(&flags.maxWorkers, "max-workers", 0, "worker pool size (overrides crawler.max_workers)")
	cmd.Flags().IntVar(&flags.delay, "delay", -1, "seconds between batches (overrides crawler.delay_seconds)")
	cmd.Flags().StringVar(&flags.dsn, "db", "", "database DSN or sqlite path (overrides db.dsn)")
	return cmd
}

func runCrawl(cmd *cobra.Command, flags crawlFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("close store failed", zap.Error(cerr))
		}
	}()

	engine, err := buildEngine(cfg, store, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		srv := api.NewServer(logger)
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			if serr := srv.Start(ctx, addr); serr != nil {
				logger.Warn("metrics server stopped", zap.Error(serr))
			}
		}()
	}

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	return nil
}

func loadConfig(flags crawlFlags) (config.Config, error) {
	cfg, err := config.Read(cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	if flags.url != "" {
		cfg.Crawler.StartURL = flags.url
	}
	if flags.maxPages > 0 {
		cfg.Crawler.MaxPages = flags.maxPages
	}
	if flags.maxWorkers > 0 {
		cfg.Crawler.MaxWorkers = flags.maxWorkers
	}
	if flags.delay >= 0 {
		cfg.Crawler.DelaySeconds = flags.delay
	}
	if flags.dsn != "" {
		cfg.DB.DSN = flags.dsn
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (crawler.ResultStore, error) {
	if cfg.UsesPostgres() {
		return postgres.New(ctx, postgres.Config{DSN: cfg.DB.DSN})
	}
	return sqlite.Open(ctx, cfg.DB.DSN)
}

func buildEngine(cfg config.Config, store crawler.ResultStore, logger *zap.Logger) (*crawler.Engine, error) {
	host, err := crawler.HostOf(cfg.Crawler.StartURL)
	if err != nil {
		return nil, fmt.Errorf("derive target host: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})
	proc := worker.New(fetcher, goqueryparser.New(), host, logger)
	recorder := dedup.New(store, xxhash.New(), system.New(), logger)

	return crawler.NewEngine(
		crawler.EngineConfig{
			Seed:       cfg.Crawler.StartURL,
			MaxPages:   cfg.Crawler.MaxPages,
			MaxWorkers: cfg.Crawler.MaxWorkers,
			Delay:      cfg.Delay(),
		},
		proc,
		recorder,
		uuid.New(),
		logger,
	)
}
