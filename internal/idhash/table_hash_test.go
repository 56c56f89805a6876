package idhash

import (
	"testing"
	"time"

	"gld-feature-lab/internal/domain"
)

func buildTable(t *testing.T, names []string, rows [][]*float64) *domain.Table {
	t.Helper()
	dates := make([]time.Time, len(rows))
	cols := make([]domain.Column, len(names))
	for i, n := range names {
		cols[i] = domain.Column{Name: n, Values: make([]*float64, len(rows))}
	}
	for r, row := range rows {
		dates[r] = time.Date(2024, 1, r+1, 0, 0, 0, 0, time.UTC)
		for c, v := range row {
			cols[c].Values[r] = v
		}
	}
	table, err := domain.NewTable(dates, cols...)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func f(v float64) *float64 { return &v }

func TestTableHash_Deterministic(t *testing.T) {
	rows := [][]*float64{{f(1.5), nil}, {f(2), f(3)}}
	a := TableHash(buildTable(t, []string{"A", "B"}, rows))
	b := TableHash(buildTable(t, []string{"A", "B"}, rows))

	if len(a) != 64 {
		t.Errorf("TableHash() length = %d, want 64", len(a))
	}
	if a != b {
		t.Errorf("TableHash() not deterministic: %s != %s", a, b)
	}
}

func TestTableHash_Sensitivity(t *testing.T) {
	base := TableHash(buildTable(t, []string{"A", "B"}, [][]*float64{{f(1), nil}, {f(2), f(3)}}))

	tests := []struct {
		name  string
		names []string
		rows  [][]*float64
	}{
		{"value changed", []string{"A", "B"}, [][]*float64{{f(1), nil}, {f(2), f(3.0000001)}}},
		{"null filled", []string{"A", "B"}, [][]*float64{{f(1), f(0)}, {f(2), f(3)}}},
		{"column renamed", []string{"A", "C"}, [][]*float64{{f(1), nil}, {f(2), f(3)}}},
		{"columns swapped", []string{"B", "A"}, [][]*float64{{nil, f(1)}, {f(3), f(2)}}},
		{"row dropped", []string{"A", "B"}, [][]*float64{{f(1), nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TableHash(buildTable(t, tt.names, tt.rows))
			if got == base {
				t.Errorf("TableHash() did not change")
			}
		})
	}
}
