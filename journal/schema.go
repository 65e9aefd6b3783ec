package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	ticker       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	entry_time   DATETIME NOT NULL,
	entry_price  REAL NOT NULL,
	exit_time    DATETIME NOT NULL,
	exit_price   REAL NOT NULL,
	exit_reason  TEXT NOT NULL,
	shares       REAL NOT NULL,
	pnl          REAL NOT NULL,
	pnl_pct      REAL NOT NULL,
	holding_days INTEGER NOT NULL,
	PRIMARY KEY (ticker, strategy, entry_time)
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);

CREATE TABLE IF NOT EXISTS positions (
	ticker      TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	entry_time  DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	shares      REAL NOT NULL,
	stop_loss   REAL NOT NULL,
	take_profit REAL NOT NULL,
	PRIMARY KEY (ticker, strategy)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	created          DATETIME NOT NULL,
	start_time       DATETIME,
	end_time         DATETIME,
	starting_capital REAL NOT NULL,
	ending_capital   REAL NOT NULL,
	trades           INTEGER NOT NULL,
	wins             INTEGER NOT NULL,
	losses           INTEGER NOT NULL,
	return_pct       REAL NOT NULL,
	max_drawdown     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id    TEXT NOT NULL,
	time      DATETIME NOT NULL,
	cash      REAL NOT NULL,
	committed REAL NOT NULL,
	realized  REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, time);
`
