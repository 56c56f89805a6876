package domain

// Range is a half-open row range [Start, End) into an aligned table.
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// WindowPair is one walk-forward split. Test starts where Train ends.
type WindowPair struct {
	Train Range
	Test  Range
}
