package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	open := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	closed := open.Add(6 * time.Hour)

	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:      "R1",
		TradeID:    "T1",
		Symbol:     "ADAUSDT",
		Size:       1000,
		EntryPrice: 0.45,
		ExitPrice:  0.48,
		OpenTime:   open,
		CloseTime:  closed,
		Pnl:        29.07,
		Reason:     "take-profit",
	}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		RunID:    "R1",
		Time:     closed,
		Cash:     9550,
		Equity:   10029.07,
		Exposure: 0.048,
		Drawdown: 0,
	}))

	// Rankings and runs are not csv concerns
	assert.NoError(t, j.RecordRanking(RankingRow{Symbol: "ADAUSDT"}))
	assert.NoError(t, j.RecordRun(RunRecord{RunID: "R1"}))

	require.NoError(t, j.Close())

	t.Run("trades file", func(t *testing.T) {
		rows := readCSV(t, tradesPath)
		require.Len(t, rows, 2)

		assert.Equal(t, []string{"run_id", "trade_id", "symbol", "size", "entry_price", "exit_price", "open_time", "close_time", "pnl", "reason"}, rows[0])
		assert.Equal(t, "T1", rows[1][1])
		assert.Equal(t, "ADAUSDT", rows[1][2])
		assert.Equal(t, "0.450000", rows[1][4])
		assert.Equal(t, open.Format(time.RFC3339), rows[1][6])
		assert.Equal(t, "take-profit", rows[1][9])
	})

	t.Run("equity file", func(t *testing.T) {
		rows := readCSV(t, equityPath)
		require.Len(t, rows, 2)

		assert.Equal(t, []string{"run_id", "time", "cash", "equity", "exposure", "drawdown"}, rows[0])
		assert.Equal(t, "R1", rows[1][0])
		assert.Equal(t, "10029.070000", rows[1][3])
	})
}

func TestCSVJournalBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "trades.csv"), filepath.Join(dir, "equity.csv"))
	assert.Error(t, err)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}
