// Package walkforward produces rolling train/test row windows over an aligned table.
package walkforward

import (
	"fmt"
	"iter"

	"gld-feature-lab/internal/domain"
)

// Splitter yields adjacent train/test windows starting at 0, step, 2*step, ...
// A window is produced only if it fits entirely inside total rows.
type Splitter struct {
	total     int
	trainSize int
	testSize  int
	step      int
	next      int // start row of the next window
}

// NewSplitter validates the window parameters.
// Sizes and step must be > 0 and total must be >= 0.
func NewSplitter(total, trainSize, testSize, step int) (*Splitter, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: total %d < 0", domain.ErrInvalidParameter, total)
	}
	if trainSize <= 0 || testSize <= 0 || step <= 0 {
		return nil, fmt.Errorf("%w: train %d, test %d, step %d must be > 0",
			domain.ErrInvalidParameter, trainSize, testSize, step)
	}
	return &Splitter{total: total, trainSize: trainSize, testSize: testSize, step: step}, nil
}

// Next returns the next window. ok is false once the windows are exhausted,
// and stays false until Reset.
func (s *Splitter) Next() (domain.WindowPair, bool) {
	pair, ok := s.at(s.next)
	if !ok {
		return domain.WindowPair{}, false
	}
	s.next += s.step
	return pair, true
}

// Reset restarts the sequence from the first window.
func (s *Splitter) Reset() {
	s.next = 0
}

// All returns a fresh sequence of every window. It does not touch the Next cursor.
func (s *Splitter) All() iter.Seq[domain.WindowPair] {
	return func(yield func(domain.WindowPair) bool) {
		for start := 0; ; start += s.step {
			pair, ok := s.at(start)
			if !ok || !yield(pair) {
				return
			}
		}
	}
}

// Count returns the total number of windows.
func (s *Splitter) Count() int {
	span := s.trainSize + s.testSize
	if span > s.total {
		return 0
	}
	return (s.total-span)/s.step + 1
}

func (s *Splitter) at(start int) (domain.WindowPair, bool) {
	trainEnd := start + s.trainSize
	testEnd := trainEnd + s.testSize
	if testEnd > s.total {
		return domain.WindowPair{}, false
	}
	return domain.WindowPair{
		Train: domain.Range{Start: start, End: trainEnd},
		Test:  domain.Range{Start: trainEnd, End: testEnd},
	}, true
}
