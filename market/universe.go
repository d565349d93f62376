package market

import "sort"

// Universe is the set of instrument histories a run operates on. Symbols
// are kept sorted so iteration order is deterministic regardless of
// arrival order.
type Universe struct {
	symbols []string
	series  map[string]*Series
}

func NewUniverse() *Universe {
	return &Universe{series: make(map[string]*Series)}
}

// Append records a closed bar for symbol, creating the series on first
// sight.
func (u *Universe) Append(symbol string, b Bar) error {
	s, ok := u.series[symbol]
	if !ok {
		s = NewSeries(symbol)
		u.series[symbol] = s
		i := sort.SearchStrings(u.symbols, symbol)
		u.symbols = append(u.symbols, "")
		copy(u.symbols[i+1:], u.symbols[i:])
		u.symbols[i] = symbol
	}
	return s.Append(b)
}

// Symbols returns all known symbols in sorted order. Callers must treat
// the slice as read only.
func (u *Universe) Symbols() []string {
	return u.symbols
}

// History returns the series for symbol, or nil when unknown.
func (u *Universe) History(symbol string) *Series {
	return u.series[symbol]
}

func (u *Universe) Len() int {
	return len(u.symbols)
}
