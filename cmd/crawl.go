package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	gstorage "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geodocs/webharvest/internal/config"
	"github.com/geodocs/webharvest/internal/connector"
	"github.com/geodocs/webharvest/internal/crawl"
	"github.com/geodocs/webharvest/internal/fetch"
	"github.com/geodocs/webharvest/internal/logging"
	"github.com/geodocs/webharvest/internal/render"
	"github.com/geodocs/webharvest/internal/sink"
	"github.com/geodocs/webharvest/internal/storage"
	"github.com/geodocs/webharvest/internal/storage/gcs"
	"github.com/geodocs/webharvest/internal/storage/local"
	storagememory "github.com/geodocs/webharvest/internal/storage/memory"
	"github.com/geodocs/webharvest/internal/store"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl from the configured seed URL",
		Long: `Runs a single bounded crawl: pages reachable from the seed URL are
rendered and extracted, discovered PDF links are handled per the configured
strategy, and document batches are emitted to the configured sink.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docSink, closeSink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	runs, err := buildRunStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer runs.Close()

	deps := crawl.Deps{
		NewRenderer: func(context.Context) (render.Renderer, error) {
			return render.NewChromedpRenderer(render.Config{
				UserAgent: cfg.Crawler.UserAgent,
				Timeout:   cfg.Render.Timeout,
				DomainQPS: cfg.Render.DomainQPS,
			}, logger)
		},
		Sink:   docSink,
		Runs:   runs,
		Logger: logger,
	}

	if cfg.Crawler.PDFStrategy == "download" {
		fetcher, ferr := fetch.NewCollyFetcher(fetch.Config{
			UserAgent: cfg.Crawler.UserAgent,
			Timeout:   cfg.Render.Timeout,
		}, logger)
		if ferr != nil {
			return fmt.Errorf("build fetcher: %w", ferr)
		}
		deps.Fetcher = fetcher
		deps.Blobs, err = buildBlobStore(ctx, cfg)
		if err != nil {
			return err
		}
	}

	engine, err := crawl.New(crawl.Options{
		Seeds:       []string{cfg.Crawler.SeedURL},
		Mode:        crawl.Mode(cfg.Crawler.Mode),
		BatchSize:   cfg.Crawler.BatchSize,
		PageBudget:  cfg.Crawler.PageBudget,
		PDFStrategy: crawl.PDFStrategy(cfg.Crawler.PDFStrategy),
	}, deps)
	if err != nil {
		return fmt.Errorf("build crawl engine: %w", err)
	}

	logger.Info("starting crawl",
		zap.String("seed_url", cfg.Crawler.SeedURL),
		zap.Int("batch_size", cfg.Crawler.BatchSize),
		zap.Int("page_budget", cfg.Crawler.PageBudget),
		zap.String("pdf_strategy", cfg.Crawler.PDFStrategy),
	)

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl failed: %w", err)
	}
	return nil
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (connector.Sink, func(), error) {
	switch cfg.Sink.Provider {
	case "fs":
		s, err := sink.NewFileSystem(cfg.Sink.OutputDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build fs sink: %w", err)
		}
		return s, func() {}, nil
	case "pubsub":
		s, err := sink.NewPubSub(ctx, cfg.Sink.ProjectID, cfg.Sink.TopicID, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build pubsub sink: %w", err)
		}
		closeFn := func() {
			if cerr := s.Close(); cerr != nil {
				logger.Warn("close pubsub sink", zap.Error(cerr))
			}
		}
		return s, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink provider %q", cfg.Sink.Provider)
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Provider {
	case "local":
		s, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("build local blob store: %w", err)
		}
		return s, nil
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		s, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.Bucket})
		if err != nil {
			return nil, fmt.Errorf("build gcs blob store: %w", err)
		}
		return s, nil
	case "memory":
		return storagememory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func buildRunStore(ctx context.Context, cfg config.Config) (store.RunStore, error) {
	switch cfg.Store.Provider {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		s, err := store.NewPostgres(ctx, store.PostgresConfig{
			DSN:       cfg.Store.DSN,
			PageTable: cfg.Store.PageTable,
			RunTable:  cfg.Store.RunTable,
		})
		if err != nil {
			return nil, fmt.Errorf("build postgres run store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}
