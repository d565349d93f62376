package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPnlTrackerRecord(t *testing.T) {
	p := NewPnlTracker()

	p.Record("BTC_USDT", 100, 10000)
	assert.InDelta(t, 0.01, p.Symbol("BTC_USDT"), 1e-12)
	assert.InDelta(t, 0.01, p.Realized(), 1e-12)
	assert.Equal(t, 1, p.Trades())
	assert.Equal(t, 1, p.Wins())
	assert.Equal(t, 0, p.Losses())

	p.Record("BTC_USDT", -50, 10000)
	assert.InDelta(t, 0.005, p.Symbol("BTC_USDT"), 1e-12)
	assert.Equal(t, 2, p.Trades())
	assert.Equal(t, 1, p.Losses())

	p.Record("ETH_USDT", 30, 10000)
	assert.InDelta(t, 0.003, p.Symbol("ETH_USDT"), 1e-12)
	assert.Equal(t, []string{"BTC_USDT", "ETH_USDT"}, p.Symbols())
}

func TestPnlTrackerFold(t *testing.T) {
	p := NewPnlTracker()

	p.Record("BTC_USDT", 200, 10000)
	p.Fold(0.002)

	assert.InDelta(t, 0.02, p.Realized(), 1e-12)
	assert.InDelta(t, 0.002, p.Unrealized(), 1e-12)
	assert.InDelta(t, 0.022, p.Total(), 1e-12)
	assert.Equal(t, 1, p.Trades(), "folds are not trades")
	assert.InDelta(t, 0.02, p.Symbol("BTC_USDT"), 1e-12,
		"folds stay out of the per-symbol books")
}

func TestPnlTrackerRealizedMatchesSymbolSum(t *testing.T) {
	p := NewPnlTracker()

	p.Record("AAA", 120, 10000)
	p.Record("BBB", -80, 10120)
	p.Record("AAA", 45, 10040)
	p.Record("CCC", -10, 10085)
	p.Fold(0.0015)

	sum := 0.0
	for _, sym := range p.Symbols() {
		sum += p.Symbol(sym)
	}
	assert.InDelta(t, p.Realized(), sum, 1e-12,
		"realized aggregate always equals the sum of per-symbol books")
	assert.InDelta(t, p.Realized()+0.0015, p.Total(), 1e-12)
}

func TestPnlTrackerIgnoresBadEquity(t *testing.T) {
	p := NewPnlTracker()

	p.Record("AAA", 100, 0)
	p.Record("AAA", 100, -5)

	assert.Zero(t, p.Trades())
	assert.Zero(t, p.Total())
	assert.Empty(t, p.Symbols())
}

func TestPnlTrackerEmpty(t *testing.T) {
	p := NewPnlTracker()

	require.Zero(t, p.Total())
	assert.Zero(t, p.Symbol("BTC_USDT"))
	assert.Empty(t, p.Symbols())
}
