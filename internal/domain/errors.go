package domain

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrMalformedSeries is returned when a single input series carries the same date twice.
	ErrMalformedSeries = errors.New("malformed series")

	// ErrDuplicateColumn is returned when two columns of one table share a name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrFetchFailure marks network, auth or decoding failures of an external fetcher.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrInvalidParameter is returned for out-of-range indicator, splitter or table arguments.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownColumn is returned when a named column is not part of a table.
	ErrUnknownColumn = errors.New("unknown column")
)

// SparseColumnWarning reports a frequency-tagged column that had no observation in range.
// It is not an error: the column stays entirely null.
type SparseColumnWarning struct {
	Column    string
	Frequency Frequency
}

func (w SparseColumnWarning) String() string {
	return fmt.Sprintf("column %s (%s) has no observations in range", w.Column, w.Frequency)
}
