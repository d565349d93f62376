package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/journal"
)

// Result is the summary of one backtest run.
type Result struct {
	RunID   string
	Start   time.Time
	End     time.Time
	Cycles  int
	Symbols int

	FinalValue  float64
	Cash        float64
	TotalPnlPct float64
	// UnrealizedPnlPct is the part of TotalPnlPct contributed by
	// positions still open at the end. Per-symbol books exclude it.
	UnrealizedPnlPct float64
	MaxDrawdown      float64
	PeakExposure     float64

	Trades int
	Wins   int
	Losses int

	PerSymbolPnl  map[string]float64
	OpenPositions int
}

// WinRate returns wins over closed trades, zero when nothing closed.
func (r Result) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

// Record builds the journal row for this run under cfg.
func (r Result) Record(cfg *config.Config) journal.RunRecord {
	return journal.RunRecord{
		RunID:   r.RunID,
		Created: time.Now().UTC(),
		Start:   r.Start,
		End:     r.End,
		Symbols: r.Symbols,

		MomentumPeriod:   cfg.Momentum.Period,
		VolatilityPeriod: cfg.Volatility.Period,
		ChannelPeriod:    cfg.Channel.Period,
		ChannelMult:      cfg.Channel.Mult,
		Transform:        cfg.Momentum.Transform,
		TopN:             cfg.Elite.ResolveTopN(r.Symbols),

		StartCash:   cfg.Run.Cash,
		FinalValue:  r.FinalValue,
		PnlPct:      r.TotalPnlPct,
		MaxDrawdown: r.MaxDrawdown,
		Trades:      r.Trades,
		Wins:        r.Wins,
		Losses:      r.Losses,
	}
}

// PrintResult writes a human-readable run summary.
func PrintResult(w io.Writer, r Result, startCash float64) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Rotation Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Symbols:       %d\n", r.Symbols)
	fmt.Fprintf(w, "Cycles:        %d\n", r.Cycles)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate()*100)
	if r.OpenPositions > 0 {
		fmt.Fprintf(w, "Still Open:    %d\n", r.OpenPositions)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %.2f\n", startCash)
	fmt.Fprintf(w, "Final Value:   %.2f\n", r.FinalValue)
	fmt.Fprintf(w, "Total PnL:     %.2f%%\n", r.TotalPnlPct*100)
	if r.UnrealizedPnlPct != 0 {
		fmt.Fprintf(w, "Unrealized:    %.2f%%\n", r.UnrealizedPnlPct*100)
	}
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(w, "Peak Exposure: %.2f%%\n", r.PeakExposure*100)

	if len(r.PerSymbolPnl) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per-Instrument PnL")
		fmt.Fprintln(w, "--------------------------------------------------")

		syms := make([]string, 0, len(r.PerSymbolPnl))
		for sym := range r.PerSymbolPnl {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		for _, sym := range syms {
			fmt.Fprintf(w, "%-12s %8.2f%%\n", sym, r.PerSymbolPnl[sym]*100)
		}
	}

	fmt.Fprintln(w)
}
