// Package sim implements an in-memory exchange for backtests. Orders
// submitted during one bar are matched against the next bar, so a
// strategy can never trade on information from the bar that produced
// its decision.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/broker"
	"github.com/kwalczyk/rotor/market"
	"github.com/kwalczyk/rotor/pkg/id"
)

// Config sets up the simulated account.
type Config struct {
	Cash       float64
	Commission float64 // flat rate on notional, e.g. 0.001
}

// Engine is the simulated venue. It implements broker.Gateway.
type Engine struct {
	mu         sync.Mutex
	cash       float64
	commission float64
	last       map[string]market.Bar
	positions  map[string]*broker.Position
	pending    []*broker.Order
	byID       map[string]*broker.Order

	orderListener broker.OrderListener
	tradeListener broker.TradeListener
}

func New(cfg Config) *Engine {
	return &Engine{
		cash:       cfg.Cash,
		commission: cfg.Commission,
		last:       make(map[string]market.Bar),
		positions:  make(map[string]*broker.Position),
		byID:       make(map[string]*broker.Order),
	}
}

// SetOrderListener registers the order status receiver. Notifications
// fire after the engine lock is released to avoid deadlocks when the
// listener queries back.
func (e *Engine) SetOrderListener(l broker.OrderListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderListener = l
}

// SetTradeListener registers the closed-trade receiver.
func (e *Engine) SetTradeListener(l broker.TradeListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tradeListener = l
}

// Submit validates and accepts an order. Acceptance is acknowledged with
// a created notification; the order rests until the next bar of its
// symbol arrives.
func (e *Engine) Submit(ctx context.Context, req broker.OrderRequest) (string, error) {
	_ = ctx // matching is synchronous; reserved for live gateways

	if err := validate(req); err != nil {
		return "", err
	}

	o := &broker.Order{
		ID:           id.New(),
		OrderRequest: req,
		Status:       broker.StatusCreated,
	}

	e.mu.Lock()
	e.pending = append(e.pending, o)
	e.byID[o.ID] = o
	created := *o
	listener := e.orderListener
	e.mu.Unlock()

	if listener != nil {
		listener.OnOrder(created)
	}
	return o.ID, nil
}

func validate(req broker.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("submit: missing symbol")
	}
	if req.Side != broker.Buy && req.Side != broker.Sell {
		return fmt.Errorf("submit %s: invalid side %d", req.Symbol, req.Side)
	}
	if req.Size <= 0 || math.IsNaN(req.Size) || math.IsInf(req.Size, 0) {
		return fmt.Errorf("submit %s: invalid size %f", req.Symbol, req.Size)
	}
	if req.Type == broker.Limit && (req.Price <= 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0)) {
		return fmt.Errorf("submit %s: invalid limit price %f", req.Symbol, req.Price)
	}
	return nil
}

// Cancel withdraws a resting order. Only live orders can be cancelled.
func (e *Engine) Cancel(ctx context.Context, orderID string) error {
	_ = ctx

	e.mu.Lock()
	o, ok := e.byID[orderID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("cancel: order %q not found", orderID)
	}
	o.Status = broker.StatusCancelled
	e.removeLocked(orderID)
	cancelled := *o
	listener := e.orderListener
	e.mu.Unlock()

	if listener != nil {
		listener.OnOrder(cancelled)
	}
	return nil
}

// OpenOrders returns the resting orders in submission order.
func (e *Engine) OpenOrders() []broker.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]broker.Order, len(e.pending))
	for i, o := range e.pending {
		out[i] = *o
	}
	return out
}

// Position returns the open holding for symbol, if any.
func (e *Engine) Position(symbol string) (broker.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[symbol]
	if !ok {
		return broker.Position{}, false
	}
	return *p, true
}

func (e *Engine) Cash() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// Equity returns cash plus open positions marked at their latest close.
func (e *Engine) Equity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked()
}

func (e *Engine) equityLocked() float64 {
	equity := e.cash
	for sym, p := range e.positions {
		mark := p.EntryPrice
		if b, ok := e.last[sym]; ok {
			mark = b.Close
		}
		equity += p.Value(mark)
	}
	return equity
}

// Exposure returns the marked value of open positions.
func (e *Engine) Exposure() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked() - e.cash
}

// removeLocked drops an order from the book. Callers hold the lock.
func (e *Engine) removeLocked(orderID string) {
	delete(e.byID, orderID)
	for i, o := range e.pending {
		if o.ID == orderID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

func logReject(o broker.Order) {
	log.Warn().
		Str("order", id.Short(o.ID)).
		Str("symbol", o.Symbol).
		Str("side", o.Side.String()).
		Str("status", o.Status.String()).
		Float64("size", o.Size).
		Msg("order not filled")
}
