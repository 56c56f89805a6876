package pipeline

import (
	"fmt"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/reporting"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains every check and whether all passed.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
}

// SufficiencyChecker judges whether a finished table is usable downstream.
// Failing checks are reported, never fatal.
type SufficiencyChecker struct {
	priceColumn    string
	minRows        int
	minPriceCover  float64
	requireWindows bool
}

// NewSufficiencyChecker creates a checker. minRows is usually the walk-forward
// train+test span; requireWindows adds the "at least one window" check.
func NewSufficiencyChecker(priceColumn string, minRows int, requireWindows bool) *SufficiencyChecker {
	return &SufficiencyChecker{
		priceColumn:    priceColumn,
		minRows:        minRows,
		minPriceCover:  0.95,
		requireWindows: requireWindows,
	}
}

// Check evaluates:
//  1. Row count >= minRows
//  2. Price column non-null share >= 95%
//  3. No input column left entirely null
//  4. Every indicator column has at least one value
//  5. At least one walk-forward window (optional)
func (c *SufficiencyChecker) Check(t *domain.Table, warnings []domain.SparseColumnWarning, windows int) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
	}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: rows
	add(SufficiencyCheck{
		Name:      "Aligned rows",
		Threshold: fmt.Sprintf(">= %d", c.minRows),
		Actual:    fmt.Sprintf("%d", t.Len()),
		Pass:      t.Len() >= c.minRows,
	})

	// Check 2: price coverage
	coverage := 0.0
	if col, ok := t.Column(c.priceColumn); ok && t.Len() > 0 {
		coverage = float64(nonNull(col.Values)) / float64(t.Len())
	}
	add(SufficiencyCheck{
		Name:      fmt.Sprintf("%s coverage", c.priceColumn),
		Threshold: fmt.Sprintf(">= %.0f%%", c.minPriceCover*100),
		Actual:    fmt.Sprintf("%.1f%%", coverage*100),
		Pass:      coverage >= c.minPriceCover,
	})

	// Check 3: sparse inputs
	add(SufficiencyCheck{
		Name:      "Sparse input columns",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", len(warnings)),
		Pass:      len(warnings) == 0,
	})

	// Check 4: indicators with no value (lookback longer than the table)
	empty := 0
	for _, col := range t.Columns() {
		if col.Frequency == "" && nonNull(col.Values) == 0 {
			empty++
		}
	}
	add(SufficiencyCheck{
		Name:      "Empty indicator columns",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", empty),
		Pass:      empty == 0,
	})

	// Check 5: windows
	if c.requireWindows {
		add(SufficiencyCheck{
			Name:      "Walk-forward windows",
			Threshold: ">= 1",
			Actual:    fmt.Sprintf("%d", windows),
			Pass:      windows >= 1,
		})
	}

	return result
}

func nonNull(values []*float64) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}

// convertToCheckRows converts sufficiency checks to report rows.
func convertToCheckRows(result *SufficiencyResult) []reporting.CheckRow {
	if result == nil {
		return nil
	}
	rows := make([]reporting.CheckRow, len(result.Checks))
	for i, c := range result.Checks {
		rows[i] = reporting.CheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return rows
}
