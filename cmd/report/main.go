// Package main regenerates RUN_REPORT.md for a stored run.
// Requires the sql storage backend; memory stores do not outlive a process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gld-feature-lab/internal/app"
	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/logger"
	"gld-feature-lab/internal/pipeline"
	"gld-feature-lab/internal/reporting"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults built in)")
	runID := flag.String("run-id", "", "Run to report on (required)")
	outputDir := flag.String("output-dir", "", "Output directory, overrides output.dir")
	flag.Parse()

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-id is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if cfg.Storage.Backend != "sql" {
		fmt.Fprintln(os.Stderr, "Error: storage.backend must be sql to report on stored runs")
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	ctx := context.Background()

	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
		os.Exit(1)
	}
	defer stores.Close()

	gen := reporting.NewGenerator(stores.Runs, stores.Features, cfg.Split.Train, cfg.Split.Test, cfg.Split.Step).
		WithClock(func() time.Time { return time.Now().UTC() })

	report, err := gen.Generate(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(cfg.Output.Dir, pipeline.ReportFile)
	if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	reporting.RenderSummary(os.Stdout, report)
	fmt.Printf("Report written to %s\n", path)
}
