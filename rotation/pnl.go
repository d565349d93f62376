package rotation

import "sort"

// PnlTracker accrues percentage pnl contributions per instrument and in
// aggregate. Each contribution is net trade pnl relative to account
// equity at close time, so the running total compounds with the account
// instead of averaging static percentages.
type PnlTracker struct {
	perSymbol  map[string]float64
	realized   float64
	unrealized float64
	trades     int
	wins       int
	losses     int
}

func NewPnlTracker() *PnlTracker {
	return &PnlTracker{perSymbol: make(map[string]float64)}
}

// Record books one closed trade's net pnl against the equity at close.
// Non-positive equity would make the ratio meaningless, so those
// contributions are dropped.
func (p *PnlTracker) Record(symbol string, pnl, equity float64) {
	if equity <= 0 {
		return
	}
	pct := pnl / equity
	p.perSymbol[symbol] += pct
	p.realized += pct
	p.trades++
	if pnl > 0 {
		p.wins++
	} else {
		p.losses++
	}
}

// Fold adds an unrealized contribution at shutdown so the aggregate
// reflects liquidation value. Folded amounts stay out of the
// per-symbol books and do not count as trades.
func (p *PnlTracker) Fold(pct float64) {
	p.unrealized += pct
}

// Symbol returns the cumulative contribution of one instrument.
func (p *PnlTracker) Symbol(symbol string) float64 {
	return p.perSymbol[symbol]
}

// Symbols returns every instrument with a contribution, sorted.
func (p *PnlTracker) Symbols() []string {
	out := make([]string, 0, len(p.perSymbol))
	for sym := range p.perSymbol {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Realized returns the aggregate of closed-trade contributions. It
// always equals the sum over Symbols of Symbol(s).
func (p *PnlTracker) Realized() float64   { return p.realized }
func (p *PnlTracker) Unrealized() float64 { return p.unrealized }

// Total returns realized plus folded unrealized contributions.
func (p *PnlTracker) Total() float64 { return p.realized + p.unrealized }

func (p *PnlTracker) Trades() int { return p.trades }
func (p *PnlTracker) Wins() int   { return p.wins }
func (p *PnlTracker) Losses() int { return p.losses }
