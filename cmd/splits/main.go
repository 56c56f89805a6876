// Package main prints the walk-forward windows of an exported aligned table.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/pipeline"
	"gld-feature-lab/internal/reporting"
	"gld-feature-lab/internal/walkforward"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults built in)")
	input := flag.String("input", "", "Aligned table CSV (default <output.dir>/aligned_table.csv)")
	train := flag.Int("train", 0, "Train rows, overrides split.train")
	test := flag.Int("test", 0, "Test rows, overrides split.test")
	step := flag.Int("step", 0, "Step rows, overrides split.step")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	split := cfg.Split
	if *train > 0 {
		split.Train = *train
	}
	if *test > 0 {
		split.Test = *test
	}
	if *step > 0 {
		split.Step = *step
	}
	path := *input
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, pipeline.TableCSVFile)
	}

	if err := run(path, split); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, split config.SplitConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	t, err := reporting.ParseTableCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	s, err := walkforward.NewSplitter(t.Len(), split.Train, split.Test, split.Step)
	if err != nil {
		return err
	}
	var windows []domain.WindowPair
	for w := range s.All() {
		windows = append(windows, w)
	}

	fmt.Printf("%s: %d rows, train=%d test=%d step=%d\n", path, t.Len(), split.Train, split.Test, split.Step)
	if len(windows) == 0 {
		fmt.Printf("No window fits: need at least %d rows\n", split.MinRows())
		return nil
	}
	reporting.RenderWindowsTable(os.Stdout, reporting.WindowRows(t, windows))
	return nil
}
