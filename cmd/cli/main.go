package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-advisor/internal/app"
	"github.com/dvloznov/finance-advisor/internal/benchmark"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/gcsuploader"
	"github.com/dvloznov/finance-advisor/internal/infra/bigquery"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "advise":
		runAdvise(cfg, log)
	case "categorize":
		runCategorize(cfg, log)
	case "seed":
		runSeed(cfg, log)
	case "export-bq":
		runExportBigQuery(cfg, log)
	case "export-gcs":
		runExportGCS(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Advisor CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  advise       Run the advice synthesizer over recent transactions")
	fmt.Println("  categorize   Categorize a description/amount, optionally storing it on a transaction")
	fmt.Println("  seed         Load the built-in benchmark and homebrew reference data")
	fmt.Println("  export-bq    Export insights not yet in BigQuery")
	fmt.Println("  export-gcs   Upload all stored insights to GCS as one snapshot")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup builds the shared services or exits.
func setup(cfg *config.Config, log zerolog.Logger, timeout time.Duration) (context.Context, context.CancelFunc, *app.App) {
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = logger.WithContext(ctx, log)

	services, err := app.New(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	return ctx, cancel, services
}

func runAdvise(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("advise", flag.ExitOnError)
	days := fs.Int("days", 90, "Number of trailing days to analyze")
	_ = fs.Parse(os.Args[2:])

	if *days <= 0 {
		log.Fatal().Msg("Error: -days must be positive")
	}

	ctx, cancel, services := setup(cfg, log, 30*time.Minute)
	defer cancel()
	defer services.Close()

	result, err := services.Synthesizer.Run(ctx, *days)
	if err != nil {
		log.Fatal().Err(err).Msg("Advice run failed")
	}

	for _, in := range result.Insights {
		fmt.Printf("[%s] %s\n", in.Kind, in.Title)
	}
	fmt.Printf("Run %s: created %d insight(s), skipped %d group(s) over %d days.\n",
		result.RunID, result.Created, result.Skipped, result.AnalyzedDays)
}

func runCategorize(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	description := fs.String("description", "", "Transaction description (required)")
	amount := fs.Float64("amount", 0, "Signed amount; negative for spend")
	transactionID := fs.Int64("transaction-id", 0, "Store the labels on this transaction")
	_ = fs.Parse(os.Args[2:])

	if *description == "" {
		log.Fatal().Msg("Error: -description is required")
	}

	ctx, cancel, services := setup(cfg, log, 2*time.Minute)
	defer cancel()
	defer services.Close()

	labels := services.Categorizer.Categorize(ctx, *description, *amount)

	out := interface{}(labels)
	if *transactionID != 0 {
		e, err := services.Store.UpsertEnrichment(ctx, *transactionID, labels)
		if err != nil {
			log.Fatal().Err(err).Int64("transaction_id", *transactionID).Msg("Failed to store labels")
		}
		out = e
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func runSeed(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])

	ctx, cancel, services := setup(cfg, log, time.Minute)
	defer cancel()
	defer services.Close()

	n, err := services.Store.ReplaceBenchmarks(ctx, benchmark.SeedBenchmarks())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed benchmarks")
	}
	fmt.Printf("Seeded %d benchmark records\n", n)

	n, err = services.Store.ReplaceHomebrew(ctx, benchmark.SeedHomebrew())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed homebrew costs")
	}
	fmt.Printf("Seeded %d homebrew cost records\n", n)
}

func runExportBigQuery(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	project := fs.String("project", cfg.BigQueryProject, "GCP project ID (or set BIGQUERY_PROJECT env)")
	dataset := fs.String("dataset", cfg.BigQueryDataset, "BigQuery dataset ID")
	dryRun := fs.Bool("dry-run", false, "Report what would be exported without writing")
	_ = fs.Parse(os.Args[2:])

	if *project == "" {
		log.Fatal().Msg("Error: -project is required")
	}
	// The exporter is created explicitly below, not as a run publisher.
	cfg.BigQueryProject = ""
	cfg.GCSBucket = ""

	ctx, cancel, services := setup(cfg, log, 10*time.Minute)
	defer cancel()
	defer services.Close()

	exporter, err := bigquery.NewExporter(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
	}
	defer exporter.Close()

	if _, err := exporter.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure insights table")
	}

	all, err := services.Store.ListAllInsights(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list insights")
	}
	exported, err := exporter.ExportedInsightIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read exported insight ids")
	}
	pending := bigquery.PendingInsights(all, exported)

	log.Info().
		Int("stored", len(all)).
		Int("already_exported", len(exported)).
		Int("pending", len(pending)).
		Bool("dry_run", *dryRun).
		Msg("Exporting insights to BigQuery")

	if !*dryRun {
		if err := exporter.ExportInsights(ctx, pending); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
	}
	fmt.Printf("Exported %d insight(s) to %s.%s.%s\n", len(pending), *project, *dataset, bigquery.InsightsTable)
}

func runExportGCS(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export-gcs", flag.ExitOnError)
	bucket := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET env)")
	_ = fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Error: -bucket is required")
	}
	cfg.GCSBucket = *bucket
	cfg.BigQueryProject = ""

	ctx, cancel, services := setup(cfg, log, 10*time.Minute)
	defer cancel()
	defer services.Close()

	if services.Snapshots == nil {
		log.Fatal().Msg("GCS client could not be initialized")
	}

	all, err := services.Store.ListAllInsights(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list insights")
	}

	name, err := services.Snapshots.Upload(ctx, "export-"+uuid.NewString(), all)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded %d insight(s) to %s\n", len(all), gcsuploader.URI(*bucket, name))
}
