package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwalczyk/rotor/broker"
	"github.com/kwalczyk/rotor/market"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) market.Bar {
	return market.Bar{
		Time:   baseTime.Add(time.Duration(i) * time.Hour),
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: 1000,
	}
}

// recorder captures notifications for assertions.
type recorder struct {
	orders []broker.Order
	trades []broker.Trade
}

func (r *recorder) OnOrder(o broker.Order)        { r.orders = append(r.orders, o) }
func (r *recorder) OnTradeClosed(t broker.Trade)  { r.trades = append(r.trades, t) }

func newTestEngine(t *testing.T, cash float64) (*Engine, *recorder) {
	t.Helper()
	e := New(Config{Cash: cash, Commission: 0.001})
	rec := &recorder{}
	e.SetOrderListener(rec)
	e.SetTradeListener(rec)
	return e, rec
}

func TestSubmitAndCancel(t *testing.T) {
	ctx := context.Background()
	e, rec := newTestEngine(t, 10000)

	oid, err := e.Submit(ctx, broker.OrderRequest{
		Symbol: "BTC_USDT",
		Side:   broker.Buy,
		Type:   broker.Limit,
		Size:   1,
		Price:  95,
	})
	require.NoError(t, err)
	require.NotEmpty(t, oid)

	open := e.OpenOrders()
	require.Len(t, open, 1)
	assert.Equal(t, oid, open[0].ID)
	assert.Equal(t, broker.StatusCreated, open[0].Status)

	require.Len(t, rec.orders, 1)
	assert.Equal(t, broker.StatusCreated, rec.orders[0].Status)

	require.NoError(t, e.Cancel(ctx, oid))
	assert.Empty(t, e.OpenOrders())

	require.Len(t, rec.orders, 2)
	assert.Equal(t, broker.StatusCancelled, rec.orders[1].Status)

	t.Run("cancel unknown order", func(t *testing.T) {
		assert.Error(t, e.Cancel(ctx, "nope"))
	})

	t.Run("cancel twice", func(t *testing.T) {
		assert.Error(t, e.Cancel(ctx, oid))
	})
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	e, rec := newTestEngine(t, 10000)

	tests := []struct {
		name string
		req  broker.OrderRequest
	}{
		{"missing symbol", broker.OrderRequest{Side: broker.Buy, Type: broker.Market, Size: 1}},
		{"zero size", broker.OrderRequest{Symbol: "BTC_USDT", Side: broker.Buy, Type: broker.Market, Size: 0}},
		{"negative size", broker.OrderRequest{Symbol: "BTC_USDT", Side: broker.Buy, Type: broker.Market, Size: -2}},
		{"bad side", broker.OrderRequest{Symbol: "BTC_USDT", Side: 0, Type: broker.Market, Size: 1}},
		{"limit without price", broker.OrderRequest{Symbol: "BTC_USDT", Side: broker.Buy, Type: broker.Limit, Size: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Submit(ctx, tt.req)
			assert.Error(t, err)
		})
	}

	assert.Empty(t, e.OpenOrders(), "invalid requests leave no order behind")
	assert.Empty(t, rec.orders)
}

func TestAccountQueries(t *testing.T) {
	e, _ := newTestEngine(t, 10000)

	assert.Equal(t, 10000.0, e.Cash())
	assert.Equal(t, 10000.0, e.Equity())
	assert.Zero(t, e.Exposure())

	_, ok := e.Position("BTC_USDT")
	assert.False(t, ok)
}
