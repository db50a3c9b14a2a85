package journal

const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
	run_id TEXT PRIMARY KEY,
	evaluated_at DATETIME NOT NULL,
	account_id TEXT NOT NULL,
	account_type TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	reason TEXT NOT NULL,
	total_trades INTEGER NOT NULL,
	total_profit TEXT NOT NULL,
	capped_profit TEXT NOT NULL,
	breaches INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	passes INTEGER NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_account ON decisions(account_id, run_id);
`
