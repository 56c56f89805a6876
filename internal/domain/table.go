package domain

import (
	"fmt"
	"time"
)

// Column is one named column of an aligned table.
// Input columns carry their series' native frequency; derived columns leave it empty.
type Column struct {
	Name      string
	Frequency Frequency
	Values    []*float64 // one entry per table row, nil = null
}

// Table is the aligned table: unique ascending dates over a fixed, ordered column set.
// A Table is never mutated after construction. Adding columns yields a new Table
// that shares the existing column slices.
type Table struct {
	dates   []time.Time
	columns []Column
	index   map[string]int
}

// NewTable builds a table, validating that dates are strictly ascending,
// column names are unique and every column has one value per date.
func NewTable(dates []time.Time, columns ...Column) (*Table, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: dates not strictly ascending at row %d (%s)",
				ErrInvalidParameter, i, dates[i].Format(DateLayout))
		}
	}

	t := &Table{
		dates: dates,
		index: make(map[string]int, len(columns)),
	}
	if err := t.addColumns(columns); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) addColumns(columns []Column) error {
	for _, c := range columns {
		if c.Name == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidParameter)
		}
		if _, exists := t.index[c.Name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		if len(c.Values) != len(t.dates) {
			return fmt.Errorf("%w: column %s has %d values for %d rows",
				ErrInvalidParameter, c.Name, len(c.Values), len(t.dates))
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return nil
}

// WithColumns returns a new table holding t's columns followed by cols.
// t itself is left unchanged.
func (t *Table) WithColumns(cols ...Column) (*Table, error) {
	next := &Table{
		dates:   t.dates,
		columns: make([]Column, len(t.columns), len(t.columns)+len(cols)),
		index:   make(map[string]int, len(t.columns)+len(cols)),
	}
	copy(next.columns, t.columns)
	for name, i := range t.index {
		next.index[name] = i
	}
	if err := next.addColumns(cols); err != nil {
		return nil, err
	}
	return next, nil
}

// WithColumnValues returns a new table where the named column's values are replaced.
// Column order and every other column are preserved.
func (t *Table) WithColumnValues(name string, values []*float64) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if len(values) != len(t.dates) {
		return nil, fmt.Errorf("%w: column %s has %d values for %d rows",
			ErrInvalidParameter, name, len(values), len(t.dates))
	}
	next := &Table{
		dates:   t.dates,
		columns: make([]Column, len(t.columns)),
		index:   t.index,
	}
	copy(next.columns, t.columns)
	next.columns[i].Values = values
	return next, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.dates)
}

// Date returns the date of row i.
func (t *Table) Date(i int) time.Time {
	return t.dates[i]
}

// Dates returns a copy of the date column.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Columns returns the columns in table order. Callers must not modify the values.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Value returns the cell at (row, column), nil when null or unknown.
func (t *Table) Value(row int, name string) *float64 {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.columns[i].Values[row]
}

// Slice returns the rows in r as a new table over the same columns.
func (t *Table) Slice(r Range) (*Table, error) {
	if r.Start < 0 || r.End > len(t.dates) || r.Start > r.End {
		return nil, fmt.Errorf("%w: range [%d,%d) outside %d rows",
			ErrInvalidParameter, r.Start, r.End, len(t.dates))
	}
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = Column{Name: c.Name, Frequency: c.Frequency, Values: c.Values[r.Start:r.End]}
	}
	return NewTable(t.dates[r.Start:r.End], cols...)
}
