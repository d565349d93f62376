// Package alloc sizes elite positions from inverse-volatility weights.
// Sizing is pure arithmetic over a ranking round; order placement stays
// with the rotation engine.
package alloc

import (
	"math"

	"github.com/kwalczyk/rotor/rank"
)

// Allocation is the target stake for one elite instrument.
type Allocation struct {
	Symbol  string
	Weight  float64 // share of the playable value
	Dollars float64
	Size    float64 // units of the instrument
}

// Inputs collects everything a sizing round needs. Prices are last
// closes keyed by symbol. TopN is the configured elite capacity, not the
// realized elite size.
type Inputs struct {
	Elite  []rank.Entry
	TopN   int
	Equity float64
	Prices map[string]float64
}

// PlayableValue returns the equity share one cycle may commit,
// equity * eliteLen / (topN + 1). The fraction stays below 1 even with
// a full elite set.
func PlayableValue(equity float64, eliteLen, topN int) float64 {
	if equity <= 0 || eliteLen <= 0 || topN <= 0 {
		return 0
	}
	return equity * float64(eliteLen) / float64(topN+1)
}

// Plan computes per-instrument allocations. Weights normalize the
// inverse volatilities over the elite subset with a finite positive
// estimate; instruments without one receive no allocation but still
// count toward the playable value.
func Plan(in Inputs) []Allocation {
	playable := PlayableValue(in.Equity, len(in.Elite), in.TopN)
	if playable <= 0 {
		return nil
	}

	sumInv := 0.0
	for _, e := range in.Elite {
		if usable(e.InvVol) {
			sumInv += e.InvVol
		}
	}
	if sumInv <= 0 {
		return nil
	}

	out := make([]Allocation, 0, len(in.Elite))
	for _, e := range in.Elite {
		if !usable(e.InvVol) {
			continue
		}
		px := in.Prices[e.Symbol]
		if px <= 0 {
			continue
		}
		w := e.InvVol / sumInv
		dollars := playable * w
		out = append(out, Allocation{
			Symbol:  e.Symbol,
			Weight:  w,
			Dollars: dollars,
			Size:    dollars / px,
		})
	}
	return out
}

func usable(inv float64) bool {
	return inv > 0 && !math.IsInf(inv, 0) && !math.IsNaN(inv)
}
