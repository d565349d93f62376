// Package rank builds the per-cycle momentum ranking and the elite cut.
// A ranking round is pure: no state is carried between cycles, so the
// elite set is always derived from current scores alone.
package rank

import "sort"

// Candidate is one instrument's readings going into a ranking round.
// HasScore is false when the instrument lacks enough history or its
// momentum is undefined for the current window.
type Candidate struct {
	Symbol     string
	Momentum   float64
	Confidence float64
	InvVol     float64
	PnlPct     float64
	HasScore   bool
}

// Entry is one ranked instrument. Rank is 1-based within the eligible
// set.
type Entry struct {
	Rank       int
	Symbol     string
	Momentum   float64
	Confidence float64
	InvVol     float64
	PnlPct     float64
	Elite      bool
}

// Table is the outcome of a ranking round, sorted best momentum first.
type Table struct {
	Entries []Entry
	eliteN  int
	elite   map[string]struct{}
}

// Build filters ineligible candidates, orders the rest by momentum
// descending, and marks the elite prefix. Ineligible means no score,
// non-positive momentum, or a denied symbol. The elite holds at most
// topN entries and shrinks when fewer instruments qualify. Momentum
// ties break by symbol so the ordering is deterministic.
func Build(cands []Candidate, topN int, deny map[string]bool) Table {
	entries := make([]Entry, 0, len(cands))
	for _, c := range cands {
		if !c.HasScore {
			continue
		}
		if c.Momentum <= 0 {
			continue
		}
		if deny[c.Symbol] {
			continue
		}
		entries = append(entries, Entry{
			Symbol:     c.Symbol,
			Momentum:   c.Momentum,
			Confidence: c.Confidence,
			InvVol:     c.InvVol,
			PnlPct:     c.PnlPct,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Momentum != entries[j].Momentum {
			return entries[i].Momentum > entries[j].Momentum
		}
		return entries[i].Symbol < entries[j].Symbol
	})

	eliteN := topN
	if eliteN > len(entries) {
		eliteN = len(entries)
	}
	if eliteN < 0 {
		eliteN = 0
	}

	elite := make(map[string]struct{}, eliteN)
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Elite = i < eliteN
		if entries[i].Elite {
			elite[entries[i].Symbol] = struct{}{}
		}
	}

	return Table{Entries: entries, eliteN: eliteN, elite: elite}
}

// Elite returns the elite prefix of the table. The slice aliases the
// table and must not be mutated.
func (t Table) Elite() []Entry {
	return t.Entries[:t.eliteN]
}

// EliteSize returns how many instruments made the cut this round.
func (t Table) EliteSize() int {
	return t.eliteN
}

// Eligible returns how many instruments survived filtering.
func (t Table) Eligible() int {
	return len(t.Entries)
}

// IsElite reports whether symbol made the cut this round.
func (t Table) IsElite(symbol string) bool {
	_, ok := t.elite[symbol]
	return ok
}
