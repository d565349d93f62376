package market

import (
	"errors"
	"fmt"
)

// ErrStaleBar is returned when an appended bar does not advance the series
// clock.
var ErrStaleBar = errors.New("bar timestamp does not advance series")

// Series holds the bar history of a single instrument in strictly
// increasing time order. Bars are append only; history is never rewritten
// once accepted.
type Series struct {
	Symbol string
	bars   []Bar
}

func NewSeries(symbol string) *Series {
	return &Series{Symbol: symbol}
}

// Append adds a closed bar to the series. Bars must arrive with strictly
// increasing timestamps.
func (s *Series) Append(b Bar) error {
	if n := len(s.bars); n > 0 && !b.Time.After(s.bars[n-1].Time) {
		return fmt.Errorf("%s at %s: %w", s.Symbol, b.Time, ErrStaleBar)
	}
	s.bars = append(s.bars, b)
	return nil
}

func (s *Series) Len() int {
	return len(s.bars)
}

// Last returns the most recent bar, ok is false when the series is empty.
func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s *Series) LastClose() float64 {
	if len(s.bars) == 0 {
		return 0
	}
	return s.bars[len(s.bars)-1].Close
}

// At returns the i-th bar, oldest first.
func (s *Series) At(i int) Bar {
	return s.bars[i]
}

// Bars returns the underlying history. Callers must treat the slice as
// read only.
func (s *Series) Bars() []Bar {
	return s.bars
}

// Tail returns the most recent n bars, or the whole history when fewer
// exist. The returned slice aliases the series and must not be mutated.
func (s *Series) Tail(n int) []Bar {
	if n <= 0 {
		return nil
	}
	if n > len(s.bars) {
		n = len(s.bars)
	}
	return s.bars[len(s.bars)-n:]
}

// Closes returns the closes of the most recent n bars, oldest first.
func (s *Series) Closes(n int) []float64 {
	tail := s.Tail(n)
	out := make([]float64, len(tail))
	for i, b := range tail {
		out[i] = b.Close
	}
	return out
}
