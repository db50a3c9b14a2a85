package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/report"
)

// SQLite stores decisions in a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordDecision appends d. Recording the same run twice is an error.
func (j *SQLite) RecordDecision(ctx context.Context, d *decision.Decision) error {
	if d.RunID == "" {
		return errors.New("record decision: empty run id")
	}
	payload, err := report.JSON(d, false)
	if err != nil {
		return err
	}

	e := EntryFor(d)
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO decisions
		(run_id, evaluated_at, account_id, account_type, recommendation, reason,
		 total_trades, total_profit, capped_profit, breaches, warnings, passes, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.EvaluatedAt, e.AccountID, e.AccountType, e.Recommendation, e.Reason,
		e.TotalTrades, e.TotalProfit, e.CappedProfit, e.Breaches, e.Warnings, e.Passes, string(payload),
	)
	if err != nil {
		return fmt.Errorf("record decision %s: %w", e.RunID, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
