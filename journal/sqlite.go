package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite journals into a single database file, creating the schema on
// open. Safe for one writer; runs append, never update.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, symbol, size, entry_price, exit_price, open_time, close_time, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Symbol, t.Size, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.Pnl, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, equity, exposure, drawdown)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.Equity, e.Exposure, e.Drawdown,
	)
	return err
}

func (j *SQLite) RecordRanking(r RankingRow) error {
	_, err := j.db.Exec(`
		INSERT INTO rankings
		(run_id, time, rank, symbol, momentum, confidence, inv_vol, pnl_pct, elite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Time, r.Rank, r.Symbol, r.Momentum,
		r.Confidence, r.InvVol, r.PnlPct, r.Elite,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, start_time, end_time, symbols,
		 momentum_period, volatility_period, channel_period, channel_mult, transform, top_n,
		 start_cash, final_value, pnl_pct, max_drawdown, trades, wins, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Start, r.End, r.Symbols,
		r.MomentumPeriod, r.VolatilityPeriod, r.ChannelPeriod, r.ChannelMult, r.Transform, r.TopN,
		r.StartCash, r.FinalValue, r.PnlPct, r.MaxDrawdown, r.Trades, r.Wins, r.Losses,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
