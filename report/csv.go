package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/kwalczyk/rotor/journal"
	"github.com/kwalczyk/rotor/optimize"
	"github.com/kwalczyk/rotor/perf"
)

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteRanking exports a ranking table, one line per ranked pair.
func WriteRanking(w io.Writer, rows []journal.RankingRow) error {
	cw := csv.NewWriter(w)

	header := []string{"rank", "pair", "momentum", "confidence", "inverse_vol", "pnl_pct", "elite"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Rank),
			r.Symbol,
			f(r.Momentum),
			f(r.Confidence),
			f(r.InvVol),
			f(r.PnlPct),
			strconv.FormatBool(r.Elite),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePnl exports realized per-instrument pnl percentages, best
// first with ties broken by pair name.
func WritePnl(w io.Writer, pnl map[string]float64) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"pair", "pnl_pct"}); err != nil {
		return err
	}
	for _, p := range sortPnl(pnl) {
		if err := cw.Write([]string{p.Symbol, f(p.Pnl)}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSweep exports sweep outcomes in the order given, parameters
// alongside results so the grid can be compared in a spreadsheet.
func WriteSweep(w io.Writer, outcomes []optimize.Outcome) error {
	cw := csv.NewWriter(w)

	header := []string{
		"momentum_period", "volatility_period", "channel_period", "channel_mult",
		"final_value", "pnl_pct", "max_drawdown", "trades", "win_rate",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range outcomes {
		rec := []string{
			strconv.Itoa(o.Config.Momentum.Period),
			strconv.Itoa(o.Config.Volatility.Period),
			strconv.Itoa(o.Config.Channel.Period),
			f(o.Config.Channel.Mult),
			f(o.Result.FinalValue),
			f(o.Result.TotalPnlPct),
			f(o.Result.MaxDrawdown),
			strconv.Itoa(o.Result.Trades),
			f(o.Result.WinRate()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePerformers exports a performer scan, one performance column per
// day window.
func WritePerformers(w io.Writer, rep *perf.Report) error {
	cw := csv.NewWriter(w)

	header := []string{"pair", "price", "natr", "avg_vol_fast", "avg_vol_slow", "vol_increase"}
	for _, d := range rep.Windows {
		header = append(header, fmt.Sprintf("perf_%dd", d))
	}
	header = append(header, "median_performance")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rep.Rows {
		rec := []string{
			r.Symbol,
			f(r.Price),
			f(r.NATR),
			f(r.AvgVolFast),
			f(r.AvgVolSlow),
			f(r.VolIncrease),
		}
		for _, d := range rep.Windows {
			rec = append(rec, f(r.Performance[d]))
		}
		rec = append(rec, f(r.Median))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
