package sim

import (
	"math"

	"github.com/kwalczyk/rotor/broker"
	"github.com/kwalczyk/rotor/market"
	"github.com/kwalczyk/rotor/pkg/id"
)

// outcome pairs a terminal order with the trade it closed, if any.
type outcome struct {
	order broker.Order
	trade *broker.Trade
}

// Advance feeds the next bar of one symbol. Resting orders for that
// symbol are matched against the bar, then the symbol's mark moves to
// the bar close. Call once per symbol per step, oldest bar first.
func (e *Engine) Advance(symbol string, b market.Bar) {
	e.mu.Lock()

	resting := make([]*broker.Order, 0, len(e.pending))
	for _, o := range e.pending {
		if o.Symbol == symbol {
			resting = append(resting, o)
		}
	}

	var outcomes []outcome
	for _, o := range resting {
		if out, ok := e.matchLocked(o, b); ok {
			outcomes = append(outcomes, out)
		}
	}

	e.last[symbol] = b

	orderL, tradeL := e.orderListener, e.tradeListener
	e.mu.Unlock()

	// Listeners run outside the lock so they can query the engine back.
	for _, out := range outcomes {
		if out.order.Status != broker.StatusCompleted {
			logReject(out.order)
		}
		if orderL != nil {
			orderL.OnOrder(out.order)
		}
		if out.trade != nil && tradeL != nil {
			tradeL.OnTradeClosed(*out.trade)
		}
	}
}

// matchLocked tries to fill one resting order against the bar. ok is
// false when the order keeps resting.
func (e *Engine) matchLocked(o *broker.Order, b market.Bar) (outcome, bool) {
	px, fillable := fillPrice(o, b)
	if !fillable {
		return outcome{}, false
	}
	if o.Side == broker.Buy {
		return e.fillBuyLocked(o, px, b), true
	}
	return e.fillSellLocked(o, px, b), true
}

// fillPrice applies the bar-range fill model. Market orders fill at the
// open. A limit buy fills when the bar trades at or below the limit, at
// the better of open and limit; limit sells mirror at or above.
func fillPrice(o *broker.Order, b market.Bar) (float64, bool) {
	if o.Type == broker.Market {
		return b.Open, true
	}
	if o.Side == broker.Buy {
		if b.Low <= o.Price {
			return math.Min(b.Open, o.Price), true
		}
		return 0, false
	}
	if b.High >= o.Price {
		return math.Max(b.Open, o.Price), true
	}
	return 0, false
}

func (e *Engine) fillBuyLocked(o *broker.Order, px float64, b market.Bar) outcome {
	cost := px * o.Size * (1 + e.commission)
	if cost > e.cash {
		o.Status = broker.StatusMargin
		e.removeLocked(o.ID)
		return outcome{order: *o}
	}

	e.cash -= cost
	if p, ok := e.positions[o.Symbol]; ok {
		// The rotation engine never adds to a position, but the book
		// stays correct if a caller does: average the entry.
		total := p.Size + o.Size
		p.EntryPrice = (p.EntryPrice*p.Size + px*o.Size) / total
		p.Size = total
	} else {
		e.positions[o.Symbol] = &broker.Position{
			Symbol:     o.Symbol,
			Size:       o.Size,
			EntryPrice: px,
			OpenTime:   b.Time,
		}
	}

	o.Status = broker.StatusCompleted
	o.FillPrice = px
	o.FillTime = b.Time
	e.removeLocked(o.ID)
	return outcome{order: *o}
}

func (e *Engine) fillSellLocked(o *broker.Order, px float64, b market.Bar) outcome {
	p, ok := e.positions[o.Symbol]
	if !ok {
		o.Status = broker.StatusRejected
		e.removeLocked(o.ID)
		return outcome{order: *o}
	}

	qty := o.Size
	if qty > p.Size {
		qty = p.Size
	}

	e.cash += px * qty * (1 - e.commission)

	// Net of entry and exit commission for the closed quantity
	pnl := qty*(px-p.EntryPrice) - e.commission*qty*(p.EntryPrice+px)

	trade := &broker.Trade{
		ID:         id.New(),
		Symbol:     o.Symbol,
		Size:       qty,
		EntryPrice: p.EntryPrice,
		ExitPrice:  px,
		OpenTime:   p.OpenTime,
		CloseTime:  b.Time,
		Pnl:        pnl,
		Reason:     o.Tag,
	}

	if qty >= p.Size {
		delete(e.positions, o.Symbol)
	} else {
		p.Size -= qty
	}

	o.Status = broker.StatusCompleted
	o.FillPrice = px
	o.FillTime = b.Time
	e.removeLocked(o.ID)
	return outcome{order: *o, trade: trade}
}
