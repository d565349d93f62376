package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwalczyk/rotor/backtest"
	"github.com/kwalczyk/rotor/config"
	"github.com/kwalczyk/rotor/journal"
	"github.com/kwalczyk/rotor/optimize"
	"github.com/kwalczyk/rotor/perf"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Elite = config.EliteConfig{Count: 2}
	return cfg
}

func testResult() backtest.Result {
	return backtest.Result{
		RunID:   "run-42",
		Start:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Cycles:  744,
		Symbols: 4,

		FinalValue:   10450.25,
		Cash:         10450.25,
		TotalPnlPct:  0.045025,
		MaxDrawdown:  0.08,
		PeakExposure: 0.66,

		Trades: 10,
		Wins:   6,
		Losses: 4,

		PerSymbolPnl: map[string]float64{"UP": 0.05, "DOWN": -0.01},
	}
}

func readCSV(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	recs, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestSummaryRender(t *testing.T) {
	s := Summary{Result: testResult(), Config: testConfig(), Dataset: "testdata"}

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "* ROTATION BACKTEST: top 2 of 4")
	assert.Contains(t, out, ":RUN_ID:      run-42")
	assert.Contains(t, out, ":DATASET:     testdata")
	assert.Contains(t, out, ":FINAL_VALUE: 10450.25")
	assert.Contains(t, out, ":RETURN_PCT:  4.50")
	assert.Contains(t, out, ":WIN_RATE:    60.00")

	// Per-instrument table is sorted best first.
	assert.Contains(t, out, "| UP | 5.00 |")
	assert.Contains(t, out, "| DOWN | -1.00 |")
	assert.Less(t, strings.Index(out, "| UP |"), strings.Index(out, "| DOWN |"))

	// Optional sections stay out when empty.
	assert.NotContains(t, out, "** Observations")
	assert.NotContains(t, out, "** Next Actions")
}

func TestSummaryRenderNotes(t *testing.T) {
	s := Summary{
		Result:      testResult(),
		Config:      testConfig(),
		Notes:       []string{"entry fills cluster at channel touches"},
		NextActions: []string{"rerun with wider channel"},
	}

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "** Observations")
	assert.Contains(t, out, "- entry fills cluster at channel touches")
	assert.Contains(t, out, "- [ ] rerun with wider channel")
}

func TestSummaryRenderNilConfig(t *testing.T) {
	s := Summary{Result: testResult()}
	assert.Error(t, s.Render(io.Discard))
}

func TestSummaryWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.org")
	s := Summary{Result: testResult(), Config: testConfig()}
	require.NoError(t, s.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "* ROTATION BACKTEST")
}

func TestWriteRanking(t *testing.T) {
	rows := []journal.RankingRow{
		{Rank: 1, Symbol: "BTCUSDT", Momentum: 12.5, Confidence: 0.9, InvVol: 30.1, PnlPct: 0.02, Elite: true},
		{Rank: 2, Symbol: "ETHUSDT", Momentum: 8.25, Confidence: 0.8, InvVol: 25.5, PnlPct: -0.015, Elite: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRanking(&buf, rows))

	recs := readCSV(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"rank", "pair", "momentum", "confidence", "inverse_vol", "pnl_pct", "elite"}, recs[0])
	assert.Equal(t, []string{"1", "BTCUSDT", "12.500000", "0.900000", "30.100000", "0.020000", "true"}, recs[1])
	assert.Equal(t, "false", recs[2][6])
}

func TestWritePnl(t *testing.T) {
	pnl := map[string]float64{
		"ETHUSDT": -0.01,
		"BTCUSDT": 0.05,
		"XRPUSDT": 0.05,
	}

	var buf bytes.Buffer
	require.NoError(t, WritePnl(&buf, pnl))

	recs := readCSV(t, &buf)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"pair", "pnl_pct"}, recs[0])
	assert.Equal(t, []string{"BTCUSDT", "0.050000"}, recs[1])
	assert.Equal(t, []string{"XRPUSDT", "0.050000"}, recs[2])
	assert.Equal(t, []string{"ETHUSDT", "-0.010000"}, recs[3])
}

func TestWriteSweep(t *testing.T) {
	best := testConfig()
	best.Momentum.Period = 300
	other := testConfig()
	other.Momentum.Period = 500

	outcomes := []optimize.Outcome{
		{Config: best, Result: backtest.Result{FinalValue: 11000, TotalPnlPct: 0.1, MaxDrawdown: 0.05, Trades: 7, Wins: 4, Losses: 3}},
		{Config: other, Result: backtest.Result{FinalValue: 9000, TotalPnlPct: -0.1, MaxDrawdown: 0.2, Trades: 3, Wins: 1, Losses: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSweep(&buf, outcomes))

	recs := readCSV(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "momentum_period", recs[0][0])
	assert.Equal(t, "300", recs[1][0])
	assert.Equal(t, "2.500000", recs[1][3])
	assert.Equal(t, "11000.000000", recs[1][4])
	assert.Equal(t, "0.571429", recs[1][8])
	assert.Equal(t, "500", recs[2][0])
}

func TestWritePerformers(t *testing.T) {
	rep := &perf.Report{
		Windows: []int{1, 4},
		Rows: []perf.Row{
			{
				Symbol: "AAAUSDT", Price: 100, NATR: 2.5,
				AvgVolFast: 8000, AvgVolSlow: 4000, VolIncrease: 2,
				Performance: map[int]float64{1: 0.1, 4: -0.05},
				Median:      0.025,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePerformers(&buf, rep))

	recs := readCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{
		"pair", "price", "natr", "avg_vol_fast", "avg_vol_slow", "vol_increase",
		"perf_1d", "perf_4d", "median_performance",
	}, recs[0])
	assert.Equal(t, []string{
		"AAAUSDT", "100.000000", "2.500000", "8000.000000", "4000.000000",
		"2.000000", "0.100000", "-0.050000", "0.025000",
	}, recs[1])
}
