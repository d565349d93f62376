// Package backtest replays loaded history through the simulated venue
// and the rotation engine, cycle by cycle, journaling trades and the
// equity curve along the way.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwalczyk/rotor/broker"
	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/feed"
	"github.com/kwalczyk/rotor/indicators"
	"github.com/kwalczyk/rotor/journal"
	"github.com/kwalczyk/rotor/market"
	"github.com/kwalczyk/rotor/pkg/id"
	"github.com/kwalczyk/rotor/rotation"
	"github.com/kwalczyk/rotor/sim"
)

// Options controls optional runner behavior.
type Options struct {
	// JournalRankings writes every cycle's full ranking table. Off by
	// default: only the final table is recorded.
	JournalRankings bool
}

// Runner drives one run. Config and Dataset are required; a nil
// Journal records nothing.
type Runner struct {
	Config  *config.Config
	Dataset *feed.Dataset
	Journal journal.Journal
	Options Options

	runID string
	uni   *market.Universe
	gw    *sim.Engine
	eng   *rotation.Engine

	peak     float64
	maxDD    float64
	peakExpo float64
}

// Run executes the replay loop: for every clock time, advance the
// venue with each symbol's bar (matching resting orders), append the
// bar to history, then let the engine run its cycle.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Config == nil {
		return Result{}, fmt.Errorf("backtest: Config is required")
	}
	if r.Dataset == nil {
		return Result{}, fmt.Errorf("backtest: Dataset is required")
	}
	if err := r.Config.Validate(); err != nil {
		return Result{}, err
	}
	if r.Journal == nil {
		r.Journal = journal.Nop{}
	}

	clock := r.Dataset.Clock()
	if len(clock) == 0 {
		return Result{}, fmt.Errorf("backtest: dataset is empty")
	}

	r.runID = id.New()
	r.uni = market.NewUniverse()
	r.gw = sim.New(sim.Config{
		Cash:       r.Config.Run.Cash,
		Commission: r.Config.Run.Commission,
	})
	r.eng = rotation.New(rotation.Config{
		MomentumPeriod:   r.Config.Momentum.Period,
		VolatilityPeriod: r.Config.Volatility.Period,
		ChannelPeriod:    r.Config.Channel.Period,
		ChannelMult:      r.Config.Channel.Mult,
		Transform:        indicators.Transform(r.Config.Momentum.Transform),
		TopN:             r.Config.Elite.ResolveTopN(r.Dataset.Len()),
		Denylist:         r.Config.Run.Denylist,
	}, r.uni, r.gw)

	r.gw.SetOrderListener(r)
	r.gw.SetTradeListener(r)

	log.Info().
		Str("run", id.Short(r.runID)).
		Int("symbols", r.Dataset.Len()).
		Int("cycles", len(clock)).
		Time("start", r.Dataset.Start()).
		Time("end", r.Dataset.End()).
		Msg("backtest starting")

	symbols := r.Dataset.Symbols()
	cursors := make(map[string]int, len(symbols))

	for _, now := range clock {
		for _, sym := range symbols {
			bars := r.Dataset.Bars(sym)
			i := cursors[sym]
			if i >= len(bars) || !bars[i].Time.Equal(now) {
				continue
			}
			cursors[sym] = i + 1

			r.gw.Advance(sym, bars[i])
			if err := r.uni.Append(sym, bars[i]); err != nil {
				return Result{}, err
			}
		}

		if err := r.eng.Cycle(ctx, now); err != nil {
			return Result{}, err
		}

		r.snapshot(now)
		if r.Options.JournalRankings {
			r.journalRanking(now)
		}
	}

	r.eng.Finish()
	r.journalRanking(r.Dataset.End())

	res := r.result(clock)
	if err := r.Journal.RecordRun(res.Record(r.Config)); err != nil {
		log.Warn().Err(err).Msg("run record not journaled")
	}

	log.Info().
		Str("run", id.Short(r.runID)).
		Float64("final", res.FinalValue).
		Float64("pnl_pct", res.TotalPnlPct*100).
		Float64("max_dd", res.MaxDrawdown*100).
		Int("trades", res.Trades).
		Msg("backtest done")

	return res, nil
}

// OnOrder forwards venue notifications to the engine.
func (r *Runner) OnOrder(o broker.Order) {
	r.eng.OnOrder(o)
}

// OnTradeClosed forwards to the engine and journals the round trip.
func (r *Runner) OnTradeClosed(t broker.Trade) {
	r.eng.OnTradeClosed(t)

	err := r.Journal.RecordTrade(journal.TradeRecord{
		RunID:      r.runID,
		TradeID:    t.ID,
		Symbol:     t.Symbol,
		Size:       t.Size,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		Pnl:        t.Pnl,
		Reason:     t.Reason,
	})
	if err != nil {
		log.Warn().Err(err).Str("trade", t.ID).Msg("trade not journaled")
	}
}

func (r *Runner) snapshot(now time.Time) {
	equity := r.gw.Equity()
	cash := r.gw.Cash()

	if equity > r.peak {
		r.peak = equity
	}
	var dd float64
	if r.peak > 0 {
		dd = 1 - equity/r.peak
	}
	if dd > r.maxDD {
		r.maxDD = dd
	}

	var expo float64
	if equity > 0 {
		expo = 1 - cash/equity
	}
	if expo > r.peakExpo {
		r.peakExpo = expo
	}

	err := r.Journal.RecordEquity(journal.EquitySnapshot{
		RunID:    r.runID,
		Time:     now,
		Cash:     cash,
		Equity:   equity,
		Exposure: expo,
		Drawdown: dd,
	})
	if err != nil {
		log.Warn().Err(err).Msg("equity not journaled")
	}
}

// Rankings returns the engine's current table as journal rows, the
// final table once Run has returned. Nil before Run.
func (r *Runner) Rankings(at time.Time) []journal.RankingRow {
	if r.eng == nil {
		return nil
	}

	entries := r.eng.Table().Entries
	rows := make([]journal.RankingRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, journal.RankingRow{
			RunID:      r.runID,
			Time:       at,
			Rank:       e.Rank,
			Symbol:     e.Symbol,
			Momentum:   e.Momentum,
			Confidence: e.Confidence,
			InvVol:     e.InvVol,
			PnlPct:     e.PnlPct,
			Elite:      e.Elite,
		})
	}
	return rows
}

func (r *Runner) journalRanking(now time.Time) {
	for _, row := range r.Rankings(now) {
		if err := r.Journal.RecordRanking(row); err != nil {
			log.Warn().Err(err).Msg("ranking not journaled")
			return
		}
	}
}

func (r *Runner) result(clock []time.Time) Result {
	pnl := r.eng.Pnl()

	perSym := make(map[string]float64)
	for _, sym := range pnl.Symbols() {
		perSym[sym] = pnl.Symbol(sym)
	}

	return Result{
		RunID:            r.runID,
		Start:            clock[0],
		End:              clock[len(clock)-1],
		Cycles:           len(clock),
		Symbols:          r.Dataset.Len(),
		FinalValue:       r.gw.Equity(),
		Cash:             r.gw.Cash(),
		TotalPnlPct:      pnl.Total(),
		UnrealizedPnlPct: pnl.Unrealized(),
		MaxDrawdown:      r.maxDD,
		PeakExposure:     r.peakExpo,
		Trades:           pnl.Trades(),
		Wins:             pnl.Wins(),
		Losses:           pnl.Losses(),
		PerSymbolPnl:     perSym,
		OpenPositions:    len(r.eng.OpenPositions()),
	}
}

