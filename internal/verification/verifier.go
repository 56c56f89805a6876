// Package verification checks that aligned tables are reproducible.
// It compares a rebuilt table with a stored one cell by cell.
package verification

import (
	"fmt"
	"math"

	"gld-feature-lab/internal/domain"
)

// FloatTolerance is the tolerance used by CompareTablesTolerance callers that
// accept rounding differences, e.g. after a round trip through a text format.
const FloatTolerance = 1e-9

// Divergence represents one mismatch between an expected and an actual table.
type Divergence struct {
	Field    string      `json:"field"`    // "rows", "columns", "date", "table_hash", a column name or "<column>.frequency"
	Row      int         `json:"row"`      // -1 when not row specific
	Expected interface{} `json:"expected"` // expected value
	Actual   interface{} `json:"actual"`   // actual value
}

func (d Divergence) String() string {
	if d.Row < 0 {
		return fmt.Sprintf("%s: expected %v, got %v", d.Field, d.Expected, d.Actual)
	}
	return fmt.Sprintf("%s[%d]: expected %v, got %v", d.Field, d.Row, d.Expected, d.Actual)
}

// CompareTables returns every divergence between expected and actual, requiring
// exact equality of dates, column order and values. Nil means identical.
func CompareTables(expected, actual *domain.Table) []Divergence {
	return CompareTablesTolerance(expected, actual, 0)
}

// CompareTablesTolerance is CompareTables with an absolute float tolerance.
// Shape divergences (row count, column names) stop the cell comparison.
func CompareTablesTolerance(expected, actual *domain.Table, tol float64) []Divergence {
	var divergences []Divergence

	if expected.Len() != actual.Len() {
		divergences = append(divergences, Divergence{
			Field:    "rows",
			Row:      -1,
			Expected: expected.Len(),
			Actual:   actual.Len(),
		})
	}

	en, an := expected.ColumnNames(), actual.ColumnNames()
	if !sameStrings(en, an) {
		divergences = append(divergences, Divergence{
			Field:    "columns",
			Row:      -1,
			Expected: en,
			Actual:   an,
		})
	}
	if len(divergences) > 0 {
		return divergences
	}

	// Dates
	for i := 0; i < expected.Len(); i++ {
		if !expected.Date(i).Equal(actual.Date(i)) {
			divergences = append(divergences, Divergence{
				Field:    "date",
				Row:      i,
				Expected: expected.Date(i).Format(domain.DateLayout),
				Actual:   actual.Date(i).Format(domain.DateLayout),
			})
		}
	}

	// Cells
	ac := actual.Columns()
	for j, ec := range expected.Columns() {
		if ec.Frequency != ac[j].Frequency {
			divergences = append(divergences, Divergence{
				Field:    ec.Name + ".frequency",
				Row:      -1,
				Expected: ec.Frequency,
				Actual:   ac[j].Frequency,
			})
		}
		for i := range ec.Values {
			if !cellEquals(ec.Values[i], ac[j].Values[i], tol) {
				divergences = append(divergences, Divergence{
					Field:    ec.Name,
					Row:      i,
					Expected: cellString(ec.Values[i]),
					Actual:   cellString(ac[j].Values[i]),
				})
			}
		}
	}

	return divergences
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cellEquals treats null == null and NaN == NaN as equal.
func cellEquals(a, b *float64, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if math.IsNaN(*a) || math.IsNaN(*b) {
		return math.IsNaN(*a) && math.IsNaN(*b)
	}
	if tol == 0 {
		return *a == *b
	}
	return math.Abs(*a-*b) <= tol
}

func cellString(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", *v)
}
