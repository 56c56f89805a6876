// Package main runs the GLD feature pipeline:
// fetch → persist raw → align/fill → indicators → persist table → export
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"gld-feature-lab/internal/app"
	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/logger"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/orchestrator"
	"gld-feature-lab/internal/pipeline"
	"gld-feature-lab/internal/reporting"
	"gld-feature-lab/internal/scheduler"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults built in)")
	outputDir := flag.String("output-dir", "", "Output directory, overrides output.dir")
	offline := flag.Bool("offline", false, "Use synthetic fixture series instead of FRED/Yahoo")
	verify := flag.Bool("verify", false, "Rebuild the table from stored observations and compare")
	schedule := flag.String("schedule", "", "Cron spec; run as a daemon instead of once")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address, overrides metrics.addr")
	news := flag.Bool("news", false, "Also collect NewsAPI headlines on every run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// Cancel on SIGINT/SIGTERM; a cancelled run is recorded as failed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, options{offline: *offline, verify: *verify, news: *news}, log); err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		os.Exit(1)
	}
}

type options struct {
	offline bool
	verify  bool
	news    bool
}

func run(ctx context.Context, cfg *config.Config, opts options, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := observability.NewMetrics(observability.DefaultNamespace, reg)

	if cfg.Metrics.Addr != "" {
		srv := startHTTPServer(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	var fetchers sources.Registry
	if opts.offline {
		log.Info().Msg("offline mode: using fixture series")
		if fetchers, err = app.OfflineRegistry(cfg); err != nil {
			return err
		}
	} else {
		cache, closeCache, err := app.NewSeriesCache(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer closeCache()
		fetchers = app.NewRegistry(cfg, cache, log)
	}

	orch, err := app.NewOrchestrator(cfg, fetchers, stores, m, log)
	if err != nil {
		return err
	}
	exporter := app.NewExporter(cfg, m, log)

	jobs := []scheduler.Job{
		scheduler.NewJob("feature-pipeline", func(ctx context.Context) error {
			return runOnce(ctx, orch, exporter, stores, opts.verify, log)
		}),
	}
	if opts.news {
		if cfg.Credentials.NewsAPIKey == "" {
			return errors.New("--news requires NEWS_API_KEY")
		}
		client := sources.NewNewsAPIClient(cfg.Credentials.NewsAPIKey, cfg.News.BaseURL, log,
			app.ClientOptions(cfg.Fetch, log)...)
		collector := app.NewNewsCollector(client, stores.Articles, cfg.News, m, log)
		jobs = append(jobs, scheduler.NewJob("news", func(ctx context.Context) error {
			_, _, err := collector.Collect(ctx)
			return err
		}))
	}

	if cfg.Schedule == "" {
		for _, job := range jobs {
			if err := job.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", job.Name(), err)
			}
		}
		return nil
	}

	s := scheduler.New(log)
	for _, job := range jobs {
		if err := s.AddJob(cfg.Schedule, job); err != nil {
			return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
		}
	}
	s.Start()
	log.Info().Time("next_run", s.Next()).Msg("waiting for schedule")

	<-ctx.Done()
	s.Stop()
	return nil
}

// runOnce executes one pipeline run, exports it and prints a summary.
func runOnce(ctx context.Context, orch *orchestrator.Orchestrator, exporter *pipeline.Exporter,
	stores *app.Stores, verify bool, log zerolog.Logger) error {
	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	if err := app.ExportRun(ctx, exporter, stores.Runs, result, log); err != nil {
		return err
	}

	reporting.RenderSummary(os.Stdout, pipeline.BuildReport(result, time.Now().UTC()))

	if !verify {
		return nil
	}
	v := verification.NewRunVerifier(orch, stores.Runs, stores.Features)
	det, err := v.VerifyDeterminism(ctx)
	if err != nil {
		return fmt.Errorf("verify determinism: %w", err)
	}
	if err := checkReport("determinism", det); err != nil {
		return err
	}
	rep, err := v.VerifyRun(ctx, result.RunID)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", result.RunID, err)
	}
	if err := checkReport("run "+result.RunID, rep); err != nil {
		return err
	}
	fmt.Printf("Verified: two rebuilds agree and match stored run %s (%s)\n", result.RunID, rep.ActualHash)
	return nil
}

func checkReport(what string, rep *verification.Report) error {
	if rep.Match {
		return nil
	}
	for _, d := range rep.Divergences {
		fmt.Fprintf(os.Stderr, "  divergence: %s\n", d)
	}
	return fmt.Errorf("verify %s: %d divergences, hash %s vs %s",
		what, len(rep.Divergences), rep.ExpectedHash, rep.ActualHash)
}

// startHTTPServer serves /metrics and /health until shut down.
func startHTTPServer(addr string, g prometheus.Gatherer, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(g))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}
