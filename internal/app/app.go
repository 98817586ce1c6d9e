// Package app wires the services shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/advice"
	"github.com/dvloznov/finance-advisor/internal/ai"
	"github.com/dvloznov/finance-advisor/internal/benchmark"
	"github.com/dvloznov/finance-advisor/internal/cache"
	"github.com/dvloznov/finance-advisor/internal/categorizer"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/gcsuploader"
	infraBQ "github.com/dvloznov/finance-advisor/internal/infra/bigquery"
	"github.com/dvloznov/finance-advisor/internal/infra/sqlstore"
	"github.com/rs/zerolog"
)

// App holds the long-lived clients. Close releases them.
type App struct {
	Store       *sqlstore.Store
	Cache       cache.Store
	AI          *ai.Client
	Categorizer *categorizer.Categorizer
	Lookup      *benchmark.Service
	Synthesizer *advice.Synthesizer

	// Optional export sinks; nil when not configured.
	BigQuery  *infraBQ.Exporter
	Snapshots *gcsuploader.SnapshotPublisher

	closers []func() error
	log     zerolog.Logger
}

// New opens the database, cache and AI client and wires the services. Export
// sinks that fail to initialize are logged and left out.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}

	store, err := sqlstore.Open(sqlstore.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.DBLogSQL})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	if err := store.AutoMigrate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	cacheStore, err := cache.New(ctx, cache.Options{
		Backend:  cfg.CacheBackend,
		RedisURL: cfg.RedisURL,
		TTL:      cfg.CacheTTL,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}
	a.Cache = cacheStore
	a.closers = append(a.closers, cacheStore.Close)

	aiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create AI client: %w", err)
	}
	if !aiClient.Configured() {
		log.Warn().Msg("GEMINI_API_KEY not set - categorization falls back to defaults and advice runs skip AI-dependent groups")
	}
	a.AI = aiClient

	a.Categorizer = categorizer.New(aiClient, cacheStore, log)
	a.Lookup = benchmark.NewService(store, cfg.Region)

	var publishers []advice.Publisher
	if cfg.BigQueryEnabled() {
		exp, err := infraBQ.NewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Warn().Err(err).Msg("BigQuery export disabled")
		} else {
			a.BigQuery = exp
			a.closers = append(a.closers, exp.Close)
			publishers = append(publishers, exp)
		}
	}
	if cfg.GCSEnabled() {
		bucket, err := gcsuploader.NewBucket(ctx, cfg.GCSBucket)
		if err != nil {
			log.Warn().Err(err).Msg("GCS snapshot upload disabled")
		} else {
			a.Snapshots = gcsuploader.NewSnapshotPublisher(bucket)
			a.closers = append(a.closers, bucket.Close)
			publishers = append(publishers, a.Snapshots)
		}
	}

	opts := advice.DefaultOptions()
	opts.DetectDuplicates = cfg.AdviceDetectDuplicates
	a.Synthesizer = advice.NewSynthesizer(store, aiClient, a.Lookup, opts, log, publishers...)

	return a, nil
}

// Close releases every client in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("Error closing resource")
		}
	}
	a.closers = nil
}
