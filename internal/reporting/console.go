package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gld-feature-lab/internal/domain"
)

// RenderSummary writes a terminal summary of r: run metadata, then the latest
// value of every column.
func RenderSummary(w io.Writer, r *RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Run " + r.RunID)
	t.AppendRows([]table.Row{
		{"Status", r.Status},
		{"Window", fmt.Sprintf("%s → %s", r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout))},
		{"Rows", r.Rows},
		{"Columns", len(r.Columns)},
		{"Windows", len(r.Windows)},
		{"Warnings", len(r.Warnings)},
	})
	if r.TableHash != "" {
		t.AppendRow(table.Row{"Table Hash", r.TableHash})
	}
	if r.Error != "" {
		t.AppendRow(table.Row{"Error", r.Error})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 12, Align: text.AlignLeft},
		{Number: 2, WidthMax: 70, Align: text.AlignLeft},
	})
	t.Render()

	if len(r.Latest) == 0 {
		return
	}
	lt := table.NewWriter()
	lt.SetOutputMirror(w)
	lt.SetStyle(table.StyleRounded)
	lt.AppendHeader(table.Row{"Column", "Date", "Value"})
	for _, l := range r.Latest {
		lt.AppendRow(table.Row{l.Column, l.Date.Format(domain.DateLayout), FormatValue(&l.Value)})
	}
	lt.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	lt.Render()
}

// RenderWindowsTable writes walk-forward windows as a terminal table.
func RenderWindowsTable(w io.Writer, rows []WindowRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Train Start", "Train End", "Test Start", "Test End", "Train Rows", "Test Rows"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Index,
			r.TrainStart.Format(domain.DateLayout),
			r.TrainEnd.Format(domain.DateLayout),
			r.TestStart.Format(domain.DateLayout),
			r.TestEnd.Format(domain.DateLayout),
			r.TrainRows,
			r.TestRows,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(rows), ""})
	t.Render()
}
