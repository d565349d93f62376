package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	size REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	pnl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_close ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL,
	exposure REAL NOT NULL,
	drawdown REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);

CREATE TABLE IF NOT EXISTS rankings (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	rank INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	momentum REAL NOT NULL,
	confidence REAL NOT NULL,
	inv_vol REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	elite INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rankings_run_time ON rankings(run_id, time);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	symbols INTEGER NOT NULL,
	momentum_period INTEGER NOT NULL,
	volatility_period INTEGER NOT NULL,
	channel_period INTEGER NOT NULL,
	channel_mult REAL NOT NULL,
	transform TEXT NOT NULL,
	top_n INTEGER NOT NULL,
	start_cash REAL NOT NULL,
	final_value REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL
);
`
