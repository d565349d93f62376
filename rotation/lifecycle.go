package rotation

import (
	"sort"
	"time"
)

// State is the per-instrument lifecycle phase. Transitions are driven
// only by gateway notifications; a resting order is never assumed to
// have filled.
type State int8

const (
	StateFlat State = iota
	StatePendingEntry
	StateOpen
	StatePendingExit
)

func (s State) String() string {
	switch s {
	case StateFlat:
		return "flat"
	case StatePendingEntry:
		return "pending_entry"
	case StateOpen:
		return "open"
	case StatePendingExit:
		return "pending_exit"
	}
	return "unknown"
}

// holding is the confirmed open position for one instrument.
type holding struct {
	size     float64
	entry    float64
	openTime time.Time
}

// book tracks lifecycle state and holdings across the universe. At most
// one live order exists per instrument; the cancel-all at the top of
// each cycle keeps that invariant.
type book struct {
	states   map[string]State
	holdings map[string]*holding
	pending  map[string]string // symbol -> live order id
}

func newBook() *book {
	return &book{
		states:   make(map[string]State),
		holdings: make(map[string]*holding),
		pending:  make(map[string]string),
	}
}

// state returns the phase for symbol; unknown symbols are flat.
func (b *book) state(symbol string) State {
	return b.states[symbol]
}

func (b *book) holding(symbol string) (holding, bool) {
	h, ok := b.holdings[symbol]
	if !ok {
		return holding{}, false
	}
	return *h, true
}

// openSymbols returns every instrument currently in StateOpen, sorted
// for deterministic iteration.
func (b *book) openSymbols() []string {
	out := make([]string, 0, len(b.states))
	for sym, s := range b.states {
		if s == StateOpen {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// markPending records a freshly accepted order and moves the state to
// the matching pending phase.
func (b *book) markPending(symbol, orderID string, entering bool) {
	b.pending[symbol] = orderID
	if entering {
		b.states[symbol] = StatePendingEntry
	} else {
		b.states[symbol] = StatePendingExit
	}
}

// applyFill lands a completed order: entries open a holding, exits
// remove it.
func (b *book) applyFill(symbol string, entering bool, size, price float64, at time.Time) {
	delete(b.pending, symbol)
	if entering {
		b.holdings[symbol] = &holding{size: size, entry: price, openTime: at}
		b.states[symbol] = StateOpen
		return
	}
	delete(b.holdings, symbol)
	b.states[symbol] = StateFlat
}

// revert settles a cancelled, rejected, or margin-failed order back to
// the state the instrument held before it was placed.
func (b *book) revert(symbol string) {
	delete(b.pending, symbol)
	switch b.states[symbol] {
	case StatePendingEntry:
		b.states[symbol] = StateFlat
	case StatePendingExit:
		b.states[symbol] = StateOpen
	}
}
