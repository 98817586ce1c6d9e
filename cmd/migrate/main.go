package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/infra/bigquery"
	"github.com/dvloznov/finance-advisor/internal/infra/sqlstore"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// tableEnsurer creates a warehouse table when it is missing.
type tableEnsurer interface {
	EnsureTable(ctx context.Context) (bool, error)
}

func main() {
	cfg := config.Load()

	dbURL := flag.String("db", cfg.DatabaseURL, "Database URL or SQLite path (or set DATABASE_URL env)")
	withBigQuery := flag.Bool("bigquery", false, "Also create the BigQuery insights table")
	projectID := flag.String("project", cfg.BigQueryProject, "GCP project ID for -bigquery (or set BIGQUERY_PROJECT env)")
	datasetID := flag.String("dataset", cfg.BigQueryDataset, "BigQuery dataset ID")
	flag.Parse()

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if err := migrateDatabase(ctx, sqlstore.Config{DSN: *dbURL, LogSQL: cfg.DBLogSQL}); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}

	if !*withBigQuery {
		return
	}
	if *projectID == "" {
		log.Fatal().Msg("Error: -project is required with -bigquery")
	}

	exporter, err := bigquery.NewExporter(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer exporter.Close()

	if err := ensureWarehouse(ctx, exporter); err != nil {
		log.Fatal().Err(err).Msg("BigQuery migration failed")
	}
}

// migrateDatabase opens the database and brings every table up to date.
func migrateDatabase(ctx context.Context, cfg sqlstore.Config) error {
	log := logger.FromContext(ctx)

	store, err := sqlstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("migrateDatabase: %w", err)
	}
	defer store.Close()

	if err := store.Ping(); err != nil {
		return fmt.Errorf("migrateDatabase: %w", err)
	}
	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("migrateDatabase: %w", err)
	}

	log.Info().Int("tables", len(sqlstore.Models())).Msg("Database schema is up to date")
	return nil
}

func ensureWarehouse(ctx context.Context, t tableEnsurer) error {
	log := logger.FromContext(ctx)

	created, err := t.EnsureTable(ctx)
	if err != nil {
		return fmt.Errorf("ensureWarehouse: %w", err)
	}

	ev := log.Info().Str("table", bigquery.InsightsTable)
	if created {
		ev.Msg("Created BigQuery table")
	} else {
		ev.Msg("BigQuery table already exists")
	}
	return nil
}
