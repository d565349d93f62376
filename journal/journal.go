// Package journal persists what a run did: closed trades, the equity
// curve, per-cycle rankings, and the run summary itself. Backends are
// interchangeable; the runner only sees the Journal interface.
package journal

import "time"

// TradeRecord is one closed round trip.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	Pnl        float64
	Reason     string
}

// EquitySnapshot is one point on the equity curve, taken after each
// cycle.
type EquitySnapshot struct {
	RunID    string
	Time     time.Time
	Cash     float64
	Equity   float64
	Exposure float64
	Drawdown float64
}

// RankingRow is one instrument's line in a cycle's ranking table.
type RankingRow struct {
	RunID      string
	Time       time.Time
	Rank       int
	Symbol     string
	Momentum   float64
	Confidence float64
	InvVol     float64
	PnlPct     float64
	Elite      bool
}

// RunRecord summarizes a whole run, parameters and outcome together,
// so sweeps can be compared straight from the runs table.
type RunRecord struct {
	RunID   string
	Created time.Time
	Start   time.Time
	End     time.Time
	Symbols int

	MomentumPeriod   int
	VolatilityPeriod int
	ChannelPeriod    int
	ChannelMult      float64
	Transform        string
	TopN             int

	StartCash   float64
	FinalValue  float64
	PnlPct      float64
	MaxDrawdown float64
	Trades      int
	Wins        int
	Losses      int
}

// WinRate returns wins over closed trades, zero when nothing closed.
func (r RunRecord) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordRanking(RankingRow) error
	RecordRun(RunRecord) error
	Close() error
}

// Nop discards everything. Sweep workers use it so only the winning
// configurations get journaled by the caller.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) RecordRanking(RankingRow) error    { return nil }
func (Nop) RecordRun(RunRecord) error         { return nil }
func (Nop) Close() error                      { return nil }
