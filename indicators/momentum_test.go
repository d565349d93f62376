package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwalczyk/rotor/market"
)

// trendBars builds bars whose closes follow close0 * exp(rate*i), so the
// log closes are exactly linear with slope rate.
func trendBars(n int, close0, rate float64) []market.Bar {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		c := close0 * math.Exp(rate*float64(i))
		bars[i] = market.Bar{
			Time:  baseTime.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return bars
}

func TestLinreg(t *testing.T) {
	t.Run("perfect uptrend", func(t *testing.T) {
		slope, r, ok := linreg([]float64{1, 2, 3, 4})
		require.True(t, ok)
		assert.InDelta(t, 1.0, slope, 1e-12)
		assert.InDelta(t, 1.0, r, 1e-12)
	})

	t.Run("perfect downtrend", func(t *testing.T) {
		slope, r, ok := linreg([]float64{4, 3, 2, 1})
		require.True(t, ok)
		assert.InDelta(t, -1.0, slope, 1e-12)
		assert.InDelta(t, -1.0, r, 1e-12)
	})

	t.Run("symmetric tent has zero slope", func(t *testing.T) {
		slope, r, ok := linreg([]float64{0, 1, 0})
		require.True(t, ok)
		assert.InDelta(t, 0.0, slope, 1e-12)
		assert.InDelta(t, 0.0, r, 1e-12)
	})

	t.Run("degenerate inputs", func(t *testing.T) {
		_, _, ok := linreg([]float64{5, 5, 5, 5})
		assert.False(t, ok, "flat series has no defined correlation")

		_, _, ok = linreg([]float64{1})
		assert.False(t, ok)

		_, _, ok = linreg(nil)
		assert.False(t, ok)
	})
}

func TestMomentumScoring(t *testing.T) {
	t.Run("basic functionality", func(t *testing.T) {
		m := NewMomentum(8, TransformR2)
		assert.Equal(t, "Momentum(8)", m.Name())
		assert.Equal(t, 8, m.Warmup())
		assert.False(t, m.Ready())

		_, ok := m.Score()
		assert.False(t, ok)

		bars := trendBars(8, 100, 0.001)
		for _, b := range bars[:7] {
			m.Update(b)
		}
		assert.False(t, m.Ready())

		m.Update(bars[7])
		require.True(t, m.Ready())

		// Exponential closes make both window regressions exact:
		// slope 0.001, r = 1, so each contributes 0.001*1*10000 = 10.
		score, ok := m.Score()
		require.True(t, ok)
		assert.InDelta(t, 10.0, score.Momentum, 1e-6)
		assert.InDelta(t, 1.0, score.Confidence, 1e-9)
	})

	t.Run("sign follows slope", func(t *testing.T) {
		m := NewMomentum(8, TransformR2)
		for _, b := range trendBars(8, 100, -0.002) {
			m.Update(b)
		}
		score, ok := m.Score()
		require.True(t, ok)
		assert.Less(t, score.Momentum, 0.0)
		assert.InDelta(t, -20.0, score.Momentum, 1e-6)
	})

	t.Run("flat series is not scoreable", func(t *testing.T) {
		m := NewMomentum(8, TransformR2)
		for _, b := range trendBars(8, 100, 0) {
			m.Update(b)
		}
		require.True(t, m.Ready())

		score, ok := m.Score()
		assert.False(t, ok)
		assert.Zero(t, score.Momentum)
		assert.Zero(t, score.Confidence)
	})

	t.Run("non-positive close is not scoreable", func(t *testing.T) {
		m := NewMomentum(4, TransformR2)
		bars := trendBars(4, 100, 0.001)
		bars[1].Close = 0
		for _, b := range bars {
			m.Update(b)
		}
		_, ok := m.Score()
		assert.False(t, ok)
	})

	t.Run("window slides over old regime", func(t *testing.T) {
		m := NewMomentum(8, TransformR2)
		for _, b := range trendBars(8, 200, -0.005) {
			m.Update(b)
		}
		// Last 8 updates fully replace the window
		for _, b := range trendBars(8, 100, 0.001) {
			m.Update(b)
		}
		score, ok := m.Score()
		require.True(t, ok)
		assert.InDelta(t, 10.0, score.Momentum, 1e-6)
	})

	t.Run("reset functionality", func(t *testing.T) {
		m := NewMomentum(4, TransformR2)
		for _, b := range trendBars(4, 100, 0.001) {
			m.Update(b)
		}
		assert.True(t, m.Ready())

		m.Reset()
		assert.False(t, m.Ready())
		_, ok := m.Score()
		assert.False(t, ok)
	})
}

func TestMomentumTransforms(t *testing.T) {
	bars := trendBars(8, 100, 0.001)

	t.Run("r2 rewards a clean trend", func(t *testing.T) {
		m := NewMomentum(8, TransformR2)
		for _, b := range bars {
			m.Update(b)
		}
		score, ok := m.Score()
		require.True(t, ok)
		assert.InDelta(t, 10.0, score.Momentum, 1e-6)
	})

	t.Run("inv_r2 discounts a clean trend", func(t *testing.T) {
		m := NewMomentum(8, TransformInvR2)
		for _, b := range bars {
			m.Update(b)
		}
		score, ok := m.Score()
		require.True(t, ok)
		// r = 1 makes (1-r)^2 vanish
		assert.InDelta(t, 0.0, score.Momentum, 1e-6)
		assert.InDelta(t, 0.0, score.Confidence, 1e-9)
	})

	t.Run("validity", func(t *testing.T) {
		assert.True(t, TransformR2.Valid())
		assert.True(t, TransformInvR2.Valid())
		assert.False(t, Transform("r4").Valid())
		assert.False(t, Transform("").Valid())
	})
}
