package journal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rustyeddy/payout/decision"
)

// csvEntry is the on-disk layout of an Entry.
type csvEntry struct {
	RunID          string `csv:"run_id"`
	EvaluatedAt    string `csv:"evaluated_at"`
	AccountID      string `csv:"account_id"`
	AccountType    string `csv:"account_type"`
	Recommendation string `csv:"recommendation"`
	Reason         string `csv:"reason"`
	TotalTrades    int    `csv:"total_trades"`
	TotalProfit    string `csv:"total_profit"`
	CappedProfit   string `csv:"capped_profit"`
	Breaches       int    `csv:"breaches"`
	Warnings       int    `csv:"warnings"`
	Passes         int    `csv:"passes"`
}

func toCSV(e Entry) csvEntry {
	return csvEntry{
		RunID:          e.RunID,
		EvaluatedAt:    e.EvaluatedAt.UTC().Format(time.RFC3339),
		AccountID:      e.AccountID,
		AccountType:    e.AccountType,
		Recommendation: e.Recommendation,
		Reason:         e.Reason,
		TotalTrades:    e.TotalTrades,
		TotalProfit:    e.TotalProfit,
		CappedProfit:   e.CappedProfit,
		Breaches:       e.Breaches,
		Warnings:       e.Warnings,
		Passes:         e.Passes,
	}
}

func (c csvEntry) entry() (Entry, error) {
	at, err := time.Parse(time.RFC3339, c.EvaluatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("run %s: evaluated_at: %w", c.RunID, err)
	}
	return Entry{
		RunID:          c.RunID,
		EvaluatedAt:    at.UTC(),
		AccountID:      c.AccountID,
		AccountType:    c.AccountType,
		Recommendation: c.Recommendation,
		Reason:         c.Reason,
		TotalTrades:    c.TotalTrades,
		TotalProfit:    c.TotalProfit,
		CappedProfit:   c.CappedProfit,
		Breaches:       c.Breaches,
		Warnings:       c.Warnings,
		Passes:         c.Passes,
	}, nil
}

// CSV appends decision summaries to a CSV file, writing the header only
// when the file is new or empty.
type CSV struct {
	mu     sync.Mutex
	f      *os.File
	header bool
}

// NewCSV opens path for appending.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	return &CSV{f: f, header: st.Size() > 0}, nil
}

func (j *CSV) RecordDecision(_ context.Context, d *decision.Decision) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows := []csvEntry{toCSV(EntryFor(d))}
	var err error
	if j.header {
		err = gocsv.MarshalWithoutHeaders(&rows, j.f)
	} else {
		err = gocsv.Marshal(&rows, j.f)
	}
	if err != nil {
		return fmt.Errorf("record decision %s: %w", d.RunID, err)
	}
	j.header = true
	return nil
}

func (j *CSV) Close() error {
	return j.f.Close()
}

// ReadCSV loads every entry from a CSV journal, oldest first.
func ReadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var rows []csvEntry
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
