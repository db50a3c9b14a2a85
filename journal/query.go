package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/report"
)

// GetDecision returns the full decision recorded for runID.
func (j *SQLite) GetDecision(ctx context.Context, runID string) (*decision.Decision, error) {
	var payload string
	err := j.db.QueryRowContext(ctx, `SELECT payload FROM decisions WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("get decision %s: %w", runID, err)
	}
	return report.ParseJSON([]byte(payload))
}

// ListDecisions returns the most recent entries first. An empty accountID
// lists every account; limit <= 0 means no limit.
func (j *SQLite) ListDecisions(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, evaluated_at, account_id, account_type, recommendation, reason,
		       total_trades, total_profit, capped_profit, breaches, warnings, passes
		FROM decisions
		WHERE ? = '' OR account_id = ?
		ORDER BY run_id DESC
		LIMIT ?`, accountID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.RunID,
			&e.EvaluatedAt,
			&e.AccountID,
			&e.AccountType,
			&e.Recommendation,
			&e.Reason,
			&e.TotalTrades,
			&e.TotalProfit,
			&e.CappedProfit,
			&e.Breaches,
			&e.Warnings,
			&e.Passes,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}
