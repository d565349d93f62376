// Package broker defines the seams between the rotation engine and an
// execution venue: a read-only market data source and an order gateway
// with asynchronous status notifications. The engine never assumes an
// order filled until the gateway says so.
package broker

import (
	"context"
	"time"

	"github.com/kwalczyk/rotor/market"
)

// MarketData exposes instrument histories of closed bars.
type MarketData interface {
	Symbols() []string
	History(symbol string) *market.Series
}

// Gateway accepts orders and answers account queries. Submit and Cancel
// only acknowledge receipt; fills, rejections, and cancellations arrive
// through the registered OrderListener.
type Gateway interface {
	Submit(ctx context.Context, req OrderRequest) (orderID string, err error)
	Cancel(ctx context.Context, orderID string) error
	OpenOrders() []Order
	Position(symbol string) (Position, bool)
	Cash() float64
	Equity() float64
}

// OrderListener receives every order status change.
type OrderListener interface {
	OnOrder(o Order)
}

// TradeListener receives each closed round trip.
type TradeListener interface {
	OnTradeClosed(t Trade)
}

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

type OrderType int8

const (
	Market OrderType = iota
	Limit
)

func (ot OrderType) String() string {
	switch ot {
	case Market:
		return "market"
	case Limit:
		return "limit"
	}
	return "unknown"
}

type OrderStatus int8

const (
	// StatusCreated means the order is accepted and live.
	StatusCreated OrderStatus = iota
	// StatusCompleted means the order filled in full.
	StatusCompleted
	// StatusRejected means the venue refused the order.
	StatusRejected
	// StatusMargin means there was not enough cash to fill.
	StatusMargin
	// StatusCancelled means the order was withdrawn before filling.
	StatusCancelled
)

func (os OrderStatus) String() string {
	switch os {
	case StatusCreated:
		return "created"
	case StatusCompleted:
		return "completed"
	case StatusRejected:
		return "rejected"
	case StatusMargin:
		return "margin"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the status ends the order's life.
func (os OrderStatus) Terminal() bool {
	return os != StatusCreated
}

// OrderRequest describes one order to submit. Size is always positive;
// the direction lives in Side. Price is the limit level and is ignored
// for market orders. Tag is an opaque label the caller gets back on
// fills, used to carry the exit reason onto trades.
type OrderRequest struct {
	Symbol string
	Side   Side
	Type   OrderType
	Size   float64
	Price  float64
	Tag    string
}

// Order is the gateway's view of a submitted request.
type Order struct {
	ID string
	OrderRequest
	Status    OrderStatus
	FillPrice float64
	FillTime  time.Time
}

// Position is an open holding. Size is positive; only long positions
// exist in the rotation model.
type Position struct {
	Symbol     string
	Size       float64
	EntryPrice float64
	OpenTime   time.Time
}

// Value returns the position's worth at the given mark price.
func (p Position) Value(mark float64) float64 {
	return p.Size * mark
}

// UnrealizedPL returns the open profit at the given mark price, gross of
// commission.
func (p Position) UnrealizedPL(mark float64) float64 {
	return p.Size * (mark - p.EntryPrice)
}

// Trade is one closed round trip.
type Trade struct {
	ID         string
	Symbol     string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	Pnl        float64 // net of commission, account currency
	Reason     string
}

// Win reports whether the round trip made money after costs.
func (t Trade) Win() bool {
	return t.Pnl > 0
}
