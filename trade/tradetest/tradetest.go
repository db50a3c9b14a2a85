// Package tradetest builds trade fixtures for tests.
package tradetest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/trade"
)

// Epoch is the reference open time fixtures are offset from.
var Epoch = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

// Builder describes a fixture trade relative to Epoch.
type Builder struct {
	Ticket      string
	OpenOffset  time.Duration
	Hold        time.Duration
	Pair        string
	Direction   trade.Direction
	Lot         string
	Profit      string
	AccountType trade.AccountType
}

// Trade materializes b, filling unset fields with sane defaults.
func (b Builder) Trade() trade.Trade {
	if b.Pair == "" {
		b.Pair = "EURUSD"
	}
	if b.Direction == "" {
		b.Direction = trade.Buy
	}
	if b.Lot == "" {
		b.Lot = "1.00"
	}
	if b.Profit == "" {
		b.Profit = "0"
	}
	if b.Hold == 0 {
		b.Hold = 10 * time.Minute
	}
	if b.AccountType == "" {
		b.AccountType = trade.OneStepAlgo
	}
	open := Epoch.Add(b.OpenOffset)
	return trade.Trade{
		Ticket:      b.Ticket,
		OpenTime:    open,
		CloseTime:   open.Add(b.Hold),
		Pair:        b.Pair,
		Direction:   b.Direction,
		LotSize:     decimal.RequireFromString(b.Lot),
		Profit:      decimal.RequireFromString(b.Profit),
		Balance:     decimal.NewFromInt(100000),
		AccountType: b.AccountType,
		AccountID:   "ACC-TEST",
	}
}

// Spaced returns n non-overlapping, identically sized trades opened gap
// apart, each held for hold. Tickets are T1..Tn.
func Spaced(n int, gap, hold time.Duration, lot, profit string) []trade.Trade {
	out := make([]trade.Trade, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Builder{
			Ticket:     fmt.Sprintf("T%d", i+1),
			OpenOffset: time.Duration(i) * gap,
			Hold:       hold,
			Lot:        lot,
			Profit:     profit,
		}.Trade())
	}
	return out
}

// Stack returns n trades on the same pair and direction all opened within a
// minute of each other and held for an hour, so every pair overlaps.
func Stack(prefix string, n int, pair string, dir trade.Direction, lot string) []trade.Trade {
	out := make([]trade.Trade, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Builder{
			Ticket:     fmt.Sprintf("%s%d", prefix, i+1),
			OpenOffset: time.Duration(i) * 10 * time.Second,
			Hold:       time.Hour,
			Pair:       pair,
			Direction:  dir,
			Lot:        lot,
		}.Trade())
	}
	return out
}
