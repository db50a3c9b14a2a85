// Package journal keeps an append-only log of evaluated decisions. Only the
// outcome of each run is stored, never the trades that produced it.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/payout/decision"
)

// ErrNotFound is returned when a run id is not in the journal.
var ErrNotFound = errors.New("decision not found")

// Entry is the summary row kept for each run.
type Entry struct {
	RunID          string
	EvaluatedAt    time.Time
	AccountID      string
	AccountType    string
	Recommendation string
	Reason         string
	TotalTrades    int
	TotalProfit    string
	CappedProfit   string
	Breaches       int
	Warnings       int
	Passes         int
}

// EntryFor summarizes d.
func EntryFor(d *decision.Decision) Entry {
	return Entry{
		RunID:          d.RunID,
		EvaluatedAt:    d.EvaluatedAt.UTC(),
		AccountID:      d.AccountID,
		AccountType:    string(d.AccountType),
		Recommendation: string(d.Recommendation),
		Reason:         d.Reason,
		TotalTrades:    d.Summary.TotalTrades,
		TotalProfit:    d.Summary.TotalProfit.StringFixed(2),
		CappedProfit:   d.Profit.CappedTotal.StringFixed(2),
		Breaches:       d.Summary.BreachCount,
		Warnings:       d.Summary.WarningCount,
		Passes:         d.Summary.PassCount,
	}
}

// Journal records decisions.
type Journal interface {
	RecordDecision(ctx context.Context, d *decision.Decision) error
	Close() error
}
