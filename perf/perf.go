// Package perf scans bar history for market performers: day-window
// price changes, volume trend, and normalized volatility per symbol,
// with low-volume instruments filtered out.
package perf

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/indicators"
	"github.com/kwalczyk/rotor/market"
)

// Options tunes the scan. Zero values take the defaults.
type Options struct {
	Windows      []int   // day windows for price changes
	BarsPerDay   int     // bars per day in the loaded timeframe
	FastDays     int     // fast volume window, days
	SlowDays     int     // slow volume window, days
	QuantileDrop float64 // drop symbols below this volume quantile
	MinVolume    float64 // minimum slow daily quote volume, 0 disables
}

func (o Options) withDefaults() Options {
	if len(o.Windows) == 0 {
		o.Windows = []int{1, 2, 3, 7, 14, 31}
	}
	if o.BarsPerDay <= 0 {
		o.BarsPerDay = 24
	}
	if o.FastDays <= 0 {
		o.FastDays = 3
	}
	if o.SlowDays <= 0 {
		o.SlowDays = 31
	}
	if o.QuantileDrop <= 0 {
		o.QuantileDrop = 0.60
	}
	return o
}

// Row is one symbol's scan line.
type Row struct {
	Symbol      string
	Price       float64
	NATR        float64
	AvgVolFast  float64
	AvgVolSlow  float64
	VolIncrease float64
	Performance map[int]float64 // day window -> price change
	Median      float64
}

// Report is the scan outcome, sorted by volume increase descending.
type Report struct {
	Windows []int
	Rows    []Row
}

// Scan computes performance rows for every symbol with enough history,
// drops the bottom volume quantile, and sorts by volume increase.
func Scan(ds *feed.Dataset, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	maxDays := opts.Windows[len(opts.Windows)-1]
	for _, d := range opts.Windows {
		if d > maxDays {
			maxDays = d
		}
	}
	if opts.SlowDays > maxDays {
		maxDays = opts.SlowDays
	}
	need := maxDays * opts.BarsPerDay

	var rows []Row
	for _, sym := range ds.Symbols() {
		bars := ds.Bars(sym)
		if len(bars) < need {
			log.Debug().Str("symbol", sym).Int("bars", len(bars)).Int("need", need).
				Msg("insufficient history for scan")
			continue
		}

		row, ok := scanSymbol(sym, bars, opts)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("perf: no symbol has %d bars of history", need)
	}

	rows = dropBottomQuantile(rows, opts.QuantileDrop)

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VolIncrease != rows[j].VolIncrease {
			return rows[i].VolIncrease > rows[j].VolIncrease
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	windows := append([]int(nil), opts.Windows...)
	sort.Ints(windows)

	return &Report{Windows: windows, Rows: rows}, nil
}

func scanSymbol(sym string, bars []market.Bar, opts Options) (Row, bool) {
	price := bars[len(bars)-1].Close

	fast := tail(bars, opts.FastDays*opts.BarsPerDay)
	slow := tail(bars, opts.SlowDays*opts.BarsPerDay)

	avgVolFast := dailyQuoteVolume(fast, opts.BarsPerDay, price)
	avgVolSlow := dailyQuoteVolume(slow, opts.BarsPerDay, price)
	if avgVolSlow <= 0 {
		return Row{}, false
	}
	if opts.MinVolume > 0 && avgVolSlow < opts.MinVolume {
		log.Info().Str("symbol", sym).Float64("daily_vol", avgVolSlow).
			Msg("skipped, not enough volume")
		return Row{}, false
	}

	atr, err := indicators.ATRFunc(fast, len(fast)-1)
	if err != nil || price <= 0 {
		return Row{}, false
	}

	perf := make(map[int]float64, len(opts.Windows))
	changes := make([]float64, 0, len(opts.Windows))
	for _, d := range opts.Windows {
		w := tail(bars, d*opts.BarsPerDay)
		ch := priceChange(w)
		perf[d] = ch
		changes = append(changes, ch)
	}

	return Row{
		Symbol:      sym,
		Price:       price,
		NATR:        atr / price * 100,
		AvgVolFast:  avgVolFast,
		AvgVolSlow:  avgVolSlow,
		VolIncrease: avgVolFast / avgVolSlow,
		Performance: perf,
		Median:      median(changes),
	}, true
}

func tail(bars []market.Bar, n int) []market.Bar {
	if n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

// dailyQuoteVolume averages base volume per whole day in the window
// and converts it at the current price.
func dailyQuoteVolume(bars []market.Bar, barsPerDay int, price float64) float64 {
	days := len(bars) / barsPerDay
	if days == 0 {
		days = 1
	}
	var sum float64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(days) * price
}

func priceChange(bars []market.Bar) float64 {
	first := bars[0].Close
	if first == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - first) / first
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// dropBottomQuantile keeps rows at or above the volume quantile in
// both the fast and the slow window.
func dropBottomQuantile(rows []Row, q float64) []Row {
	if len(rows) < 2 || q <= 0 {
		return rows
	}

	fasts := make([]float64, len(rows))
	slows := make([]float64, len(rows))
	for i, r := range rows {
		fasts[i] = r.AvgVolFast
		slows[i] = r.AvgVolSlow
	}
	fastQ := quantile(fasts, q)
	slowQ := quantile(slows, q)

	kept := rows[:0]
	for _, r := range rows {
		if r.AvgVolFast >= fastQ && r.AvgVolSlow >= slowQ {
			kept = append(kept, r)
		}
	}
	return kept
}

// quantile interpolates linearly between order statistics.
func quantile(vals []float64, q float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)

	if q <= 0 {
		return s[0]
	}
	if q >= 1 {
		return s[len(s)-1]
	}

	pos := q * float64(len(s)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(s) {
		return s[lo]
	}
	return s[lo] + frac*(s[lo+1]-s[lo])
}
