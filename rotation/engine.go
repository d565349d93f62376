// Package rotation implements the momentum rotation engine: score every
// instrument, rank the eligible ones, keep capital in the current elite,
// and rotate out of everything else. One Cycle runs per closed bar
// across the universe; all order effects arrive back through gateway
// notifications before the next cycle in a backtest, or whenever the
// venue answers in live use.
package rotation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/alloc"
	"github.com/kwalczyk/rotor/broker"
	"github.com/kwalczyk/rotor/indicators"
	"github.com/kwalczyk/rotor/pkg/id"
	"github.com/kwalczyk/rotor/rank"
)

// Exit reasons carried on order tags and closed trades.
const (
	ReasonEntry      = "entry"
	ReasonRotateOut  = "rotate-out"
	ReasonTakeProfit = "take-profit"
)

// Config are the engine knobs. TopN must already be resolved to an
// absolute elite capacity.
type Config struct {
	MomentumPeriod   int
	VolatilityPeriod int
	ChannelPeriod    int
	ChannelMult      float64
	Transform        indicators.Transform
	TopN             int
	Denylist         []string
}

// indicatorSet is the per-instrument indicator arena.
type indicatorSet struct {
	momentum *indicators.Momentum
	vol      *indicators.ATR
	channel  *indicators.Channel
	seen     int
}

func (s *indicatorSet) ready() bool {
	return s.momentum.Ready() && s.vol.Ready() && s.channel.Ready()
}

// Engine runs the rotation. It is notification driven: implement
// broker.OrderListener and broker.TradeListener against the gateway in
// use. Not safe for concurrent use; a backtest drives it from a single
// goroutine.
type Engine struct {
	cfg  Config
	data broker.MarketData
	gw   broker.Gateway
	deny map[string]bool

	sets  map[string]*indicatorSet
	book  *book
	pnl   *PnlTracker
	table rank.Table
}

func New(cfg Config, data broker.MarketData, gw broker.Gateway) *Engine {
	deny := make(map[string]bool, len(cfg.Denylist))
	for _, sym := range cfg.Denylist {
		deny[strings.ToUpper(strings.TrimSpace(sym))] = true
	}
	return &Engine{
		cfg:  cfg,
		data: data,
		gw:   gw,
		deny: deny,
		sets: make(map[string]*indicatorSet),
		book: newBook(),
		pnl:  NewPnlTracker(),
	}
}

// Cycle runs one evaluation pass over the closed bars currently in the
// market data source: withdraw every resting order, rebuild the ranking,
// rotate out of fallen instruments, then size entries and arm take
// profits for the elite.
func (e *Engine) Cycle(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.catchUp()
	e.cancelAll(ctx)

	e.table = e.buildTable()
	elite := e.table.Elite()

	// Rotate out before entering: anything open that fell off the elite
	// leaves at market this cycle, freeing cash for the new entries.
	for _, sym := range e.book.openSymbols() {
		if e.table.IsElite(sym) {
			continue
		}
		e.submitExit(ctx, sym, broker.Market, 0, ReasonRotateOut)
	}

	plan := alloc.Plan(alloc.Inputs{
		Elite:  elite,
		TopN:   e.cfg.TopN,
		Equity: e.gw.Equity(),
		Prices: e.lastCloses(elite),
	})
	allocated := make(map[string]alloc.Allocation, len(plan))
	for _, a := range plan {
		allocated[a.Symbol] = a
	}

	for _, entry := range elite {
		set := e.sets[entry.Symbol]
		if set == nil || !set.channel.Ready() {
			continue
		}
		switch e.book.state(entry.Symbol) {
		case StateFlat:
			a, ok := allocated[entry.Symbol]
			if !ok {
				continue
			}
			e.submitEntry(ctx, entry.Symbol, a.Size, set.channel.Lower())
		case StateOpen:
			e.submitExit(ctx, entry.Symbol, broker.Limit, set.channel.Upper(), ReasonTakeProfit)
		}
	}

	log.Debug().
		Time("cycle", now).
		Int("eligible", e.table.Eligible()).
		Int("elite", e.table.EliteSize()).
		Int("open", len(e.book.openSymbols())).
		Float64("equity", e.gw.Equity()).
		Msg("cycle complete")
	return nil
}

// catchUp feeds indicator sets every bar they have not seen yet.
func (e *Engine) catchUp() {
	for _, sym := range e.data.Symbols() {
		hist := e.data.History(sym)
		if hist == nil {
			continue
		}
		set, ok := e.sets[sym]
		if !ok {
			set = &indicatorSet{
				momentum: indicators.NewMomentum(e.cfg.MomentumPeriod, e.cfg.Transform),
				vol:      indicators.NewATR(e.cfg.VolatilityPeriod),
				channel:  indicators.NewChannel(e.cfg.ChannelPeriod, e.cfg.VolatilityPeriod, e.cfg.ChannelMult),
			}
			e.sets[sym] = set
		}
		for i := set.seen; i < hist.Len(); i++ {
			b := hist.At(i)
			set.momentum.Update(b)
			set.vol.Update(b)
			set.channel.Update(b)
		}
		set.seen = hist.Len()
	}
}

// cancelAll withdraws every resting order so this cycle's decisions are
// made from confirmed state only.
func (e *Engine) cancelAll(ctx context.Context) {
	for _, o := range e.gw.OpenOrders() {
		if err := e.gw.Cancel(ctx, o.ID); err != nil {
			log.Warn().Err(err).
				Str("order", id.Short(o.ID)).
				Str("symbol", o.Symbol).
				Msg("cancel failed")
		}
	}
}

// buildTable scores the universe and ranks the eligible instruments.
// An instrument qualifies once its whole indicator set is warm and the
// momentum window regresses cleanly.
func (e *Engine) buildTable() rank.Table {
	syms := e.data.Symbols()
	cands := make([]rank.Candidate, 0, len(syms))
	for _, sym := range syms {
		set := e.sets[sym]
		if set == nil {
			continue
		}
		c := rank.Candidate{Symbol: sym, PnlPct: e.pnl.Symbol(sym)}
		if set.ready() {
			if score, ok := set.momentum.Score(); ok {
				c.Momentum = score.Momentum
				c.Confidence = score.Confidence
				c.HasScore = true
			}
			if inv, ok := set.vol.InverseVol(); ok {
				c.InvVol = inv
			}
		}
		cands = append(cands, c)
	}
	return rank.Build(cands, e.cfg.TopN, e.deny)
}

func (e *Engine) lastCloses(elite []rank.Entry) map[string]float64 {
	prices := make(map[string]float64, len(elite))
	for _, entry := range elite {
		if hist := e.data.History(entry.Symbol); hist != nil {
			prices[entry.Symbol] = hist.LastClose()
		}
	}
	return prices
}

func (e *Engine) submitEntry(ctx context.Context, symbol string, size, limit float64) {
	oid, err := e.gw.Submit(ctx, broker.OrderRequest{
		Symbol: symbol,
		Side:   broker.Buy,
		Type:   broker.Limit,
		Size:   size,
		Price:  limit,
		Tag:    ReasonEntry,
	})
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("entry not accepted")
		return
	}
	log.Debug().
		Str("symbol", symbol).
		Str("order", id.Short(oid)).
		Float64("size", size).
		Float64("limit", limit).
		Msg("entry placed")
}

func (e *Engine) submitExit(ctx context.Context, symbol string, typ broker.OrderType, limit float64, reason string) {
	h, ok := e.book.holding(symbol)
	if !ok {
		return
	}
	oid, err := e.gw.Submit(ctx, broker.OrderRequest{
		Symbol: symbol,
		Side:   broker.Sell,
		Type:   typ,
		Size:   h.size,
		Price:  limit,
		Tag:    reason,
	})
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Str("reason", reason).Msg("exit not accepted")
		return
	}
	log.Debug().
		Str("symbol", symbol).
		Str("order", id.Short(oid)).
		Str("reason", reason).
		Float64("size", h.size).
		Msg("exit placed")
}

// OnOrder moves the lifecycle on every gateway notification. Fills open
// or close holdings; rejections and cancellations settle the instrument
// back to its prior state.
func (e *Engine) OnOrder(o broker.Order) {
	switch o.Status {
	case broker.StatusCreated:
		e.book.markPending(o.Symbol, o.ID, o.Side == broker.Buy)
	case broker.StatusCompleted:
		e.book.applyFill(o.Symbol, o.Side == broker.Buy, o.Size, o.FillPrice, o.FillTime)
	case broker.StatusRejected, broker.StatusMargin:
		e.book.revert(o.Symbol)
		log.Warn().
			Str("symbol", o.Symbol).
			Str("status", o.Status.String()).
			Str("state", e.book.state(o.Symbol).String()).
			Msg("order failed, state settled back")
	case broker.StatusCancelled:
		e.book.revert(o.Symbol)
	}
}

// OnTradeClosed books the round trip against equity at close time.
func (e *Engine) OnTradeClosed(t broker.Trade) {
	equity := e.gw.Equity()
	e.pnl.Record(t.Symbol, t.Pnl, equity)
	log.Info().
		Str("symbol", t.Symbol).
		Str("reason", t.Reason).
		Float64("pnl", t.Pnl).
		Float64("equity", equity).
		Msg("trade closed")
}

// Finish folds the unrealized pnl of anything still open into the
// aggregate so reported totals reflect liquidation value. Positions are
// left open; only the books change.
func (e *Engine) Finish() {
	equity := e.gw.Equity()
	if equity <= 0 {
		return
	}
	for _, sym := range e.book.openSymbols() {
		h, ok := e.book.holding(sym)
		if !ok {
			continue
		}
		hist := e.data.History(sym)
		if hist == nil {
			continue
		}
		mark := hist.LastClose()
		if mark <= 0 {
			continue
		}
		e.pnl.Fold(h.size * (mark - h.entry) / equity)
	}
}

// State exposes the lifecycle phase of one instrument.
func (e *Engine) State(symbol string) State {
	return e.book.state(symbol)
}

// OpenPositions returns the currently held symbols.
func (e *Engine) OpenPositions() []string {
	return e.book.openSymbols()
}

// Table returns the ranking of the most recent cycle.
func (e *Engine) Table() rank.Table {
	return e.table
}

// Rank runs the scoring half of a cycle against a data source without
// touching any gateway: every indicator set is fed the full history
// and the table is built exactly as a live cycle would build it.
func Rank(cfg Config, data broker.MarketData) rank.Table {
	e := New(cfg, data, nil)
	e.catchUp()
	return e.buildTable()
}

// Pnl exposes the accumulated pnl books.
func (e *Engine) Pnl() *PnlTracker {
	return e.pnl
}
