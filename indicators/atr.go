package indicators

import (
	"fmt"
	"math"

	"github.com/kwalczyk/rotor/market"
)

// ATRFunc calculates the Average True Range over the final stretch of the
// given bars. Returns an error if there aren't enough bars for the period.
func ATRFunc(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period+1, len(bars))
	}

	trueRanges := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trueRanges = append(trueRanges, bars[i].TrueRange(bars[i-1].Close))
	}

	// Initial ATR is the SMA of the first 'period' true ranges
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += trueRanges[i]
	}
	atr := sum / float64(period)

	// Smooth remaining values using Wilder's method
	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return atr, nil
}

// ATR is a streaming Average True Range indicator
type ATR struct {
	period    int
	atr       float64
	count     int
	warmupSum float64
	prev      market.Bar
	hasPrev   bool
	lastClose float64
}

// NewATR creates a new Average True Range indicator with the given period
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
	}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	// Need period+1 bars because TR requires the previous close
	return a.period + 1
}

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.hasPrev = false
	a.lastClose = 0
}

func (a *ATR) Update(b market.Bar) {
	a.lastClose = b.Close
	if !a.hasPrev {
		// First bar, just store it
		a.prev = b
		a.hasPrev = true
		return
	}

	tr := b.TrueRange(a.prev.Close)

	if a.count < a.period {
		// During warmup, accumulate sum for initial ATR
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			// Initialize ATR with average of true ranges
			a.atr = a.warmupSum / float64(a.period)
		}
	} else {
		// Apply Wilder's smoothing
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}

	a.prev = b
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// Normalized returns the ATR as a fraction of the last close, the usual
// cross-instrument volatility measure.
func (a *ATR) Normalized() float64 {
	if !a.Ready() || a.lastClose <= 0 {
		return 0
	}
	return a.atr / a.lastClose
}

// InverseVol returns close/ATR, the inverse-volatility sizing weight.
// ok is false before warmup and when the estimate is zero or not finite.
func (a *ATR) InverseVol() (float64, bool) {
	if !a.Ready() || a.atr <= 0 || a.lastClose <= 0 {
		return 0, false
	}
	inv := a.lastClose / a.atr
	if math.IsInf(inv, 0) || math.IsNaN(inv) {
		return 0, false
	}
	return inv, true
}
