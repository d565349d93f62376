// Package feed loads bar history from disk into an in-memory Dataset.
// One file per symbol, plain CSV or xz/zip compressed. Loading is
// tolerant: malformed rows and stale timestamps are counted and
// skipped, never fatal.
package feed

import (
	"sort"
	"time"

	"github.com/kwalczyk/rotor/market"
)

// Dataset is an immutable snapshot of loaded history: bars per symbol
// plus the merged cycle clock. Sweep workers share one Dataset
// read-only.
type Dataset struct {
	symbols []string
	bars    map[string][]market.Bar
	clock   []time.Time
}

// Build assembles a Dataset, sorting symbols and merging every
// distinct bar time into one ascending clock.
func Build(bars map[string][]market.Bar) *Dataset {
	d := &Dataset{
		symbols: make([]string, 0, len(bars)),
		bars:    bars,
	}

	seen := make(map[int64]time.Time)
	for sym, bb := range bars {
		d.symbols = append(d.symbols, sym)
		for _, b := range bb {
			seen[b.Time.UnixNano()] = b.Time
		}
	}
	sort.Strings(d.symbols)

	d.clock = make([]time.Time, 0, len(seen))
	for _, t := range seen {
		d.clock = append(d.clock, t)
	}
	sort.Slice(d.clock, func(i, j int) bool { return d.clock[i].Before(d.clock[j]) })

	return d
}

// Symbols returns the loaded symbols in sorted order.
func (d *Dataset) Symbols() []string {
	return d.symbols
}

// Bars returns a symbol's history, nil when unknown.
func (d *Dataset) Bars(symbol string) []market.Bar {
	return d.bars[symbol]
}

// Clock returns every distinct bar time across the dataset, ascending.
// This is the backtest cycle sequence: gaps in one symbol do not stall
// the others.
func (d *Dataset) Clock() []time.Time {
	return d.clock
}

// Len returns the number of symbols.
func (d *Dataset) Len() int {
	return len(d.symbols)
}

// Start returns the first clock time, zero when empty.
func (d *Dataset) Start() time.Time {
	if len(d.clock) == 0 {
		return time.Time{}
	}
	return d.clock[0]
}

// End returns the last clock time, zero when empty.
func (d *Dataset) End() time.Time {
	if len(d.clock) == 0 {
		return time.Time{}
	}
	return d.clock[len(d.clock)-1]
}

// Universe materializes the whole history into a market.Universe, for
// one-shot rankings that need no cycle-by-cycle replay.
func (d *Dataset) Universe() (*market.Universe, error) {
	u := market.NewUniverse()
	for _, sym := range d.symbols {
		for _, b := range d.bars[sym] {
			if err := u.Append(sym, b); err != nil {
				return nil, err
			}
		}
	}
	return u, nil
}
