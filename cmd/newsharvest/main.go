// Command newsharvest runs one extraction batch: fetch the configured
// news index page, resolve selectors (statically or via AI discovery with
// fallback), extract and enrich article records, write them to local
// files and optionally to BigQuery, and record the run summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"newsharvest/ai"
	"newsharvest/config"
	"newsharvest/persist"
	"newsharvest/pipeline"
	"newsharvest/runstore"
	"newsharvest/scraper"
	"newsharvest/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to YAML config file (optional)")
	flag.Parse()

	// Missing .env is fine; values can come from the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := scraper.NewHTTPFetcher(cfg.FetchTimeout)

	var finder scraper.SelectorFinder
	if cfg.AIEnabled {
		finder = ai.NewClient(cfg.OpenAIAPIKey, cfg.ModelID)
	}
	resolver := scraper.NewResolver(finder, scraper.ResolverConfig{
		AIEnabled:  cfg.AIEnabled,
		APITimeout: cfg.APITimeout,
	}, logger)

	extractor := scraper.NewExtractor(cfg.MaxArticles, logger)

	sinks := []pipeline.Sink{persist.NewWriter(cfg.OutputDir, logger)}
	if cfg.WarehouseEnabled() {
		wh, err := warehouse.New(ctx, warehouse.Config{
			ProjectID:       cfg.BigQuery.ProjectID,
			DatasetID:       cfg.BigQuery.DatasetID,
			TableID:         cfg.BigQuery.TableID,
			CredentialsFile: cfg.BigQuery.CredentialsFile,
		}, logger)
		if err != nil {
			return err
		}
		defer wh.Close()
		sinks = append(sinks, wh)
	} else {
		logger.Warn("skipping warehouse upload, GOOGLE_CLOUD_PROJECT not set")
	}

	p := pipeline.New(fetcher, resolver, extractor, sinks, logger)

	logger.Info("starting run",
		zap.String("url", cfg.URL),
		zap.Int("max_articles", cfg.MaxArticles),
		zap.Bool("ai_enabled", cfg.AIEnabled))

	batch, summary, runErr := p.Run(ctx, cfg.URL)

	if store, err := runstore.New(cfg.RunStorePath); err != nil {
		logger.Error("failed to open run store", zap.Error(err))
	} else {
		defer store.Close()
		if err := store.Record(summary); err != nil {
			logger.Error("failed to record run summary", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("run failed", zap.Error(runErr))
		return runErr
	}

	logger.Info("run complete",
		zap.Stringer("run_id", summary.RunID),
		zap.Int("extracted", len(batch)),
		zap.Int("dropped", summary.Dropped),
		zap.String("selector_source", string(summary.SelectorSource)))
	return nil
}

// newLogger builds a production JSON logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = lvl
	}
	return cfg.Build()
}
