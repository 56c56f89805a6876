// Package main collects gold-related headlines from NewsAPI into a CSV file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/app"
	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/logger"
	"gld-feature-lab/internal/sources"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults built in)")
	output := flag.String("output", "", "CSV output path, overrides news.output")
	query := flag.String("query", "", "Search query, overrides news.query")
	days := flag.Int("days", 0, "Days of history, overrides news.days (provider caps at 30)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.News.Output = *output
	}
	if *query != "" {
		cfg.News.Query = *query
	}
	if *days > 0 {
		cfg.News.Days = *days
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("news collection failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Credentials.NewsAPIKey == "" {
		return errors.New("NEWS_API_KEY is not set")
	}

	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	client := sources.NewNewsAPIClient(cfg.Credentials.NewsAPIKey, cfg.News.BaseURL, log,
		app.ClientOptions(cfg.Fetch, log)...)

	fetched, _, err := app.NewNewsCollector(client, stores.Articles, cfg.News, nil, log).Collect(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d articles to %s\n", fetched, cfg.News.Output)
	return nil
}
