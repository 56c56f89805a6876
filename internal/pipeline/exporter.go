// Package pipeline writes the outputs of a finished run to disk.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/orchestrator"
	"gld-feature-lab/internal/reporting"
)

// Output file names.
const (
	TableCSVFile  = "aligned_table.csv"
	TableXLSXFile = "aligned_table.xlsx"
	ReportFile    = "RUN_REPORT.md"
)

// Exporter renders a run's table and report into an output directory.
type Exporter struct {
	outputDir string
	checker   *SufficiencyChecker
	metrics   *observability.Metrics
	log       zerolog.Logger
	clock     func() time.Time
}

// NewExporter creates an exporter writing into outputDir.
func NewExporter(outputDir string, log zerolog.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		log:       log.With().Str("component", "exporter").Logger(),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (e *Exporter) WithClock(clock func() time.Time) *Exporter {
	e.clock = clock
	return e
}

// WithSufficiencyChecker adds data sufficiency checks to the report.
func (e *Exporter) WithSufficiencyChecker(c *SufficiencyChecker) *Exporter {
	e.checker = c
	return e
}

// WithMetrics counts written exports.
func (e *Exporter) WithMetrics(m *observability.Metrics) *Exporter {
	e.metrics = m
	return e
}

// Export writes:
// - aligned_table.csv
// - aligned_table.xlsx
// - RUN_REPORT.md
//
// Everything is rendered first and written to a staging directory next to
// outputDir; files are renamed into outputDir only once all of them exist.
// A render or write failure leaves outputDir untouched.
func (e *Exporter) Export(result *orchestrator.RunResult) error {
	files, err := e.render(result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	staging, err := os.MkdirTemp(e.outputDir, ".staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(staging, f.name), f.data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	for _, f := range files {
		if err := os.Rename(filepath.Join(staging, f.name), filepath.Join(e.outputDir, f.name)); err != nil {
			return fmt.Errorf("publish %s: %w", f.name, err)
		}
	}

	e.metrics.RecordExport()
	e.log.Info().
		Str("run_id", result.RunID).
		Str("dir", e.outputDir).
		Int("files", len(files)).
		Msg("exported run")
	return nil
}

type outputFile struct {
	name string
	data []byte
}

func (e *Exporter) render(result *orchestrator.RunResult) ([]outputFile, error) {
	if result == nil || result.Table == nil {
		return nil, fmt.Errorf("export: %w: no table", domain.ErrInvalidParameter)
	}

	report := BuildReport(result, e.clock())
	if e.checker != nil {
		checks := e.checker.Check(result.Table, result.Warnings, len(result.Windows))
		report.Checks = convertToCheckRows(checks)
		if !checks.AllPass {
			e.log.Warn().Str("run_id", result.RunID).Msg("table failed sufficiency checks")
		}
	}

	csvData, err := reporting.RenderTableCSV(result.Table)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", TableCSVFile, err)
	}
	xlsxData, err := reporting.RenderTableXLSX(result.Table, report.Windows)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", TableXLSXFile, err)
	}

	return []outputFile{
		{name: TableCSVFile, data: csvData},
		{name: TableXLSXFile, data: xlsxData},
		{name: ReportFile, data: []byte(reporting.RenderMarkdown(report))},
	}, nil
}

// BuildReport converts a run result into a report, reusing the latest values
// the orchestrator already looked up.
func BuildReport(result *orchestrator.RunResult, generatedAt time.Time) *reporting.RunReport {
	rec := &domain.RunRecord{
		RunID:     result.RunID,
		Start:     result.Start,
		End:       result.End,
		Status:    domain.RunStatusSucceeded,
		TableHash: result.Hash,
	}
	for _, w := range result.Warnings {
		rec.Warnings = append(rec.Warnings, w.String())
	}
	report := reporting.Build(rec, result.Table, result.Windows, generatedAt)
	if result.Latest != nil {
		report.Latest = result.Latest
	}
	return report
}
