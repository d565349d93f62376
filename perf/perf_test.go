package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/market"
)

var scanBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// scanBars builds hourly bars with the given closes and volumes. High
// and low are one unit either side of the close.
func scanBars(closes, vols []float64) []market.Bar {
	bb := make([]market.Bar, len(closes))
	for i, c := range closes {
		bb[i] = market.Bar{
			Time:   scanBase.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: vols[i],
		}
	}
	return bb
}

func rep(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Two bars per day keeps the fixtures small: four days of history is
// eight bars.
func smallOpts() Options {
	return Options{
		Windows:    []int{1, 2, 4},
		BarsPerDay: 2,
		FastDays:   1,
		SlowDays:   4,
	}
}

func TestScanWindowsAndMedian(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 110, 120, 130, 150}
	ds := feed.Build(map[string][]market.Bar{
		"UP": scanBars(closes, rep(10, len(closes))),
	})

	report, err := Scan(ds, smallOpts())
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []int{1, 2, 4}, report.Windows)

	row := report.Rows[0]
	assert.Equal(t, "UP", row.Symbol)
	assert.InDelta(t, 150.0, row.Price, 1e-9)

	// Last close 150 against the first close of each day window.
	assert.InDelta(t, (150.0-130.0)/130.0, row.Performance[1], 1e-9)
	assert.InDelta(t, (150.0-110.0)/110.0, row.Performance[2], 1e-9)
	assert.InDelta(t, 0.5, row.Performance[4], 1e-9)
	assert.InDelta(t, (150.0-110.0)/110.0, row.Median, 1e-9)

	// Volume 10 per bar at price 150: fast is one day of two bars,
	// slow is four days of eight.
	assert.InDelta(t, 3000.0, row.AvgVolFast, 1e-9)
	assert.InDelta(t, 3000.0, row.AvgVolSlow, 1e-9)
	assert.InDelta(t, 1.0, row.VolIncrease, 1e-9)

	// One true range in the fast window: max(2, 151-130, 149-130) = 21.
	assert.InDelta(t, 21.0/150.0*100, row.NATR, 1e-9)
}

func TestScanMinVolumeSkip(t *testing.T) {
	opts := smallOpts()
	opts.MinVolume = 5000

	ds := feed.Build(map[string][]market.Bar{
		"OK":  scanBars(rep(100, 8), rep(100, 8)),
		"LOW": scanBars(rep(100, 8), rep(1, 8)),
	})

	report, err := Scan(ds, opts)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "OK", report.Rows[0].Symbol)
	assert.InDelta(t, 20000.0, report.Rows[0].AvgVolSlow, 1e-9)
}

func TestScanDropsBottomQuantile(t *testing.T) {
	ds := feed.Build(map[string][]market.Bar{
		"A": scanBars(rep(100, 8), rep(100, 8)),
		"B": scanBars(rep(100, 8), rep(200, 8)),
		"C": scanBars(rep(100, 8), rep(300, 8)),
		"D": scanBars(rep(100, 8), rep(400, 8)),
	})

	report, err := Scan(ds, smallOpts())
	require.NoError(t, err)

	// The 0.60 volume quantile of 20k/40k/60k/80k is 56k, so only the
	// top two survive. Equal ratios fall back to symbol order.
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "C", report.Rows[0].Symbol)
	assert.Equal(t, "D", report.Rows[1].Symbol)
}

func TestScanSortsByVolIncrease(t *testing.T) {
	surge := append(rep(100, 6), 400, 400)

	ds := feed.Build(map[string][]market.Bar{
		"A": scanBars(rep(100, 8), rep(1, 8)),
		"B": scanBars(rep(100, 8), surge),
		"C": scanBars(rep(100, 8), rep(2, 8)),
		"D": scanBars(rep(100, 8), rep(200, 8)),
	})

	report, err := Scan(ds, smallOpts())
	require.NoError(t, err)

	// A and C fall below the volume quantile. B's volume surge puts it
	// ahead of the flat D.
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "B", report.Rows[0].Symbol)
	assert.InDelta(t, 80000.0/35000.0, report.Rows[0].VolIncrease, 1e-9)
	assert.Equal(t, "D", report.Rows[1].Symbol)
	assert.InDelta(t, 1.0, report.Rows[1].VolIncrease, 1e-9)
}

func TestScanSkipsShortHistory(t *testing.T) {
	full := scanBars(rep(100, 8), rep(50, 8))
	short := scanBars(rep(100, 7), rep(50, 7))

	report, err := Scan(feed.Build(map[string][]market.Bar{
		"FULL":  full,
		"SHORT": short,
	}), smallOpts())
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "FULL", report.Rows[0].Symbol)

	_, err = Scan(feed.Build(map[string][]market.Bar{"SHORT": short}), smallOpts())
	assert.ErrorContains(t, err, "8 bars")
}

func TestScanDefaultWindows(t *testing.T) {
	ds := feed.Build(map[string][]market.Bar{
		"X": scanBars(rep(100, 10), rep(10, 10)),
	})

	// Defaults want 31 days of hourly bars.
	_, err := Scan(ds, Options{})
	assert.ErrorContains(t, err, "744")
}
