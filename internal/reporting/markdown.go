package reporting

import (
	"fmt"
	"strings"
	"time"

	"gld-feature-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *RunReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Status))
	sb.WriteString(fmt.Sprintf("| Window Start | %s |\n", r.Start.Format(domain.DateLayout)))
	sb.WriteString(fmt.Sprintf("| Window End | %s |\n", r.End.Format(domain.DateLayout)))
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", r.Rows))
	sb.WriteString(fmt.Sprintf("| Columns | %d |\n", len(r.Columns)))
	if r.TableHash != "" {
		sb.WriteString(fmt.Sprintf("| Table Hash | `%s` |\n", r.TableHash))
	}
	sb.WriteString("\n")

	if r.Error != "" {
		sb.WriteString("## Error\n\n")
		sb.WriteString(fmt.Sprintf("```\n%s\n```\n\n", r.Error))
	}

	// Columns
	sb.WriteString("## Columns\n\n")
	if len(r.Columns) > 0 {
		sb.WriteString("| Column | Frequency | Non-null | Null | First Value |\n")
		sb.WriteString("|--------|-----------|----------|------|-------------|\n")
		for _, c := range r.Columns {
			freq := string(c.Frequency)
			if freq == "" {
				freq = "derived"
			}
			first := "-"
			if c.FirstDate != nil {
				first = c.FirstDate.Format(domain.DateLayout)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
				c.Name, freq, c.NonNull, c.Nulls, first))
		}
	} else {
		sb.WriteString("No table available.\n")
	}
	sb.WriteString("\n")

	// Warnings
	sb.WriteString("## Data Quality\n\n")
	if len(r.Warnings) > 0 {
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	} else {
		sb.WriteString("Every input column has at least one observation.\n")
	}
	sb.WriteString("\n")

	if len(r.Checks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
	}

	// Latest values
	sb.WriteString("## Latest Values\n\n")
	if len(r.Latest) > 0 {
		sb.WriteString("| Column | Date | Value |\n")
		sb.WriteString("|--------|------|-------|\n")
		for _, l := range r.Latest {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				l.Column, l.Date.Format(domain.DateLayout), FormatValue(&l.Value)))
		}
	} else {
		sb.WriteString("No values available.\n")
	}
	sb.WriteString("\n")

	// Windows
	sb.WriteString("## Walk-Forward Windows\n\n")
	if len(r.Windows) > 0 {
		sb.WriteString("| # | Train | Test | Train Rows | Test Rows |\n")
		sb.WriteString("|---|-------|------|------------|-----------|\n")
		for _, w := range r.Windows {
			sb.WriteString(fmt.Sprintf("| %d | %s → %s | %s → %s | %d | %d |\n",
				w.Index,
				w.TrainStart.Format(domain.DateLayout), w.TrainEnd.Format(domain.DateLayout),
				w.TestStart.Format(domain.DateLayout), w.TestEnd.Format(domain.DateLayout),
				w.TrainRows, w.TestRows))
		}
	} else {
		sb.WriteString("No windows fit the table.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
