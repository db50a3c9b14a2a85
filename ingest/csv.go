// Package ingest turns exported trade histories into validated trade
// records. Both the canonical ten-column layout and MT4/MT5 position
// reports are accepted.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/payout/trade"
)

// ErrValidation is wrapped by every error caused by the content of the input
// rather than by I/O.
var ErrValidation = errors.New("invalid trade data")

// Columns is the canonical header, in output order.
var Columns = []string{
	"ticket", "open_time", "close_time", "pair", "direction",
	"lot_size", "profit", "balance", "account_type", "account_id",
}

// Options fills the fields MT4/MT5 reports do not carry.
type Options struct {
	Balance     decimal.Decimal
	AccountType trade.AccountType
	AccountID   string
}

// DefaultOptions matches a fresh 1-step algo account.
func DefaultOptions() Options {
	return Options{
		Balance:     decimal.NewFromInt(10000),
		AccountType: trade.OneStepAlgo,
		AccountID:   "MT4-001",
	}
}

// tradeRow is the raw canonical record before typing.
type tradeRow struct {
	Ticket      string `csv:"ticket"`
	OpenTime    string `csv:"open_time"`
	CloseTime   string `csv:"close_time"`
	Pair        string `csv:"pair"`
	Direction   string `csv:"direction"`
	LotSize     string `csv:"lot_size"`
	Profit      string `csv:"profit"`
	Balance     string `csv:"balance"`
	AccountType string `csv:"account_type"`
	AccountID   string `csv:"account_id"`
}

// ReadFile reads a trade export from disk. A missing file yields an error
// matching fs.ErrNotExist.
func ReadFile(path string, opts Options) ([]trade.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()

	trades, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(log.Fields{"path": path, "trades": len(trades)}).Debug("trades loaded")
	return trades, nil
}

// Read parses a tab or comma separated export. Tab is tried first since
// MT4/MT5 write tab separated reports.
func Read(r io.Reader, opts Options) ([]trade.Trade, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}

	records, err := split(data, '\t')
	if err != nil || len(records) == 0 || len(records[0]) == 1 {
		records, err = split(data, ',')
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return ParseRecords(records, opts)
}

func split(data []byte, comma rune) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// ParseRecords types a header-first table of cells, as read from a file or
// a spreadsheet range.
func ParseRecords(records [][]string, opts Options) ([]trade.Trade, error) {
	records = dropBlankRows(records)
	if len(records) == 0 {
		return nil, invalid(&trade.ValidationError{Field: "file", Reason: "no header row"})
	}
	records = dropUnnamedColumns(records)

	if isMetaTrader(records[0]) {
		records = fromMetaTrader(records, opts)
	}

	if missing := missingColumns(records[0]); len(missing) > 0 {
		return nil, invalid(&trade.ValidationError{Field: "columns",
			Reason: fmt.Sprintf("missing required fields: %s (required: %s)",
				strings.Join(missing, ", "), strings.Join(Columns, ", "))})
	}
	if len(records) == 1 {
		return nil, invalid(&trade.ValidationError{Field: "file", Reason: "no trades"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("normalize trades: %w", err)
	}

	var rows []*tradeRow
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	trades := make([]trade.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := row.parse()
		if err != nil {
			log.WithField("row", i+2).Debug("rejecting trade row")
			return nil, invalid(err)
		}
		trades = append(trades, t)
	}

	if err := trade.ValidateAll(trades); err != nil {
		return nil, invalid(err)
	}
	return trades, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// dropUnnamedColumns trims header names and removes columns with an empty
// or spreadsheet-generated ("Unnamed: 3") name.
func dropUnnamedColumns(records [][]string) [][]string {
	var keep []int
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || strings.HasPrefix(h, "Unnamed") {
			continue
		}
		records[0][i] = h
		keep = append(keep, i)
	}

	out := make([][]string, len(records))
	for r, rec := range records {
		row := make([]string, len(keep))
		for j, i := range keep {
			if i < len(rec) {
				row[j] = strings.TrimSpace(rec[i])
			}
		}
		out[r] = row
	}
	return out
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, c := range Columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
