package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/trade"
)

// timeLayouts are tried in order; values without a zone are taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006.01.02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04",
	"2006-01-02 15:04:05-07:00",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseDecimal accepts thousands separated by spaces and a decimal comma.
func parseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), " ", ""), ",", ".")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("missing")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}

func (r *tradeRow) parse() (trade.Trade, error) {
	ticket := strings.TrimSpace(r.Ticket)
	fail := func(field string, err error) (trade.Trade, error) {
		return trade.Trade{}, &trade.ValidationError{Ticket: ticket, Field: field, Reason: err.Error()}
	}

	open, err := parseTime(r.OpenTime)
	if err != nil {
		return fail("open_time", err)
	}
	closed, err := parseTime(r.CloseTime)
	if err != nil {
		return fail("close_time", err)
	}
	dir, err := trade.ParseDirection(r.Direction)
	if err != nil {
		return fail("direction", err)
	}
	lot, err := parseDecimal(r.LotSize)
	if err != nil {
		return fail("lot_size", err)
	}
	profit, err := parseDecimal(r.Profit)
	if err != nil {
		return fail("profit", err)
	}
	balance, err := parseDecimal(r.Balance)
	if err != nil {
		return fail("balance", err)
	}
	at, err := trade.ParseAccountType(r.AccountType)
	if err != nil {
		return fail("account_type", err)
	}

	return trade.Trade{
		Ticket:      ticket,
		OpenTime:    open,
		CloseTime:   closed,
		Pair:        strings.TrimSpace(r.Pair),
		Direction:   dir,
		LotSize:     lot,
		Profit:      profit,
		Balance:     balance,
		AccountType: at,
		AccountID:   strings.TrimSpace(r.AccountID),
	}, nil
}

// isMetaTrader recognizes a positions report by its Position and Time
// columns.
func isMetaTrader(header []string) bool {
	var position, tm bool
	for _, h := range header {
		switch h {
		case "Position":
			position = true
		case "Time":
			tm = true
		}
	}
	return position && tm
}

// fromMetaTrader rewrites a positions report into canonical columns. The
// first Time column is the open, the second the close. Rows without a
// position number are dropped.
func fromMetaTrader(records [][]string, opts Options) [][]string {
	idx := map[string]int{}
	var times []int
	for i, h := range records[0] {
		if h == "Time" {
			times = append(times, i)
			continue
		}
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	timeAt := func(rec []string, n int) string {
		if n < len(times) && times[n] < len(rec) {
			return rec[times[n]]
		}
		return ""
	}

	out := [][]string{Columns}
	for _, rec := range records[1:] {
		ticket := strings.TrimSpace(col(rec, "Position"))
		if ticket == "" {
			continue
		}
		out = append(out, []string{
			ticket,
			timeAt(rec, 0),
			timeAt(rec, 1),
			col(rec, "Symbol"),
			strings.ToUpper(col(rec, "Type")),
			col(rec, "Volume"),
			col(rec, "Profit"),
			opts.Balance.String(),
			string(opts.AccountType),
			opts.AccountID,
		})
	}
	return out
}
