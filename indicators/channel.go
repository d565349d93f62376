package indicators

import (
	"fmt"

	"github.com/kwalczyk/rotor/market"
)

// Channel is a streaming volatility channel: a simple moving average of
// closes offset up and down by a multiple of the ATR. The bands drive the
// limit entry and exit levels of the rotation engine.
type Channel struct {
	mid  *SimpleMA
	atr  *ATR
	mult float64
}

// NewChannel creates a channel with an SMA midline over smaPeriod, band
// offsets of mult * ATR(atrPeriod).
func NewChannel(smaPeriod, atrPeriod int, mult float64) *Channel {
	return &Channel{
		mid:  NewMA(smaPeriod),
		atr:  NewATR(atrPeriod),
		mult: mult,
	}
}

func (c *Channel) Name() string {
	return fmt.Sprintf("Channel(%d,%d,%.2f)", c.mid.period, c.atr.period, c.mult)
}

func (c *Channel) Warmup() int {
	if w := c.atr.Warmup(); w > c.mid.Warmup() {
		return w
	}
	return c.mid.Warmup()
}

func (c *Channel) Reset() {
	c.mid.Reset()
	c.atr.Reset()
}

func (c *Channel) Update(b market.Bar) {
	c.mid.Update(b)
	c.atr.Update(b)
}

func (c *Channel) Ready() bool {
	return c.mid.Ready() && c.atr.Ready()
}

// Mid returns the channel midline.
func (c *Channel) Mid() float64 {
	if !c.Ready() {
		return 0
	}
	return c.mid.Value()
}

// Upper returns the take-profit band.
func (c *Channel) Upper() float64 {
	if !c.Ready() {
		return 0
	}
	return c.mid.Value() + c.mult*c.atr.Value()
}

// Lower returns the entry band.
func (c *Channel) Lower() float64 {
	if !c.Ready() {
		return 0
	}
	return c.mid.Value() - c.mult*c.atr.Value()
}
