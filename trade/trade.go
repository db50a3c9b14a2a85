// Package trade holds the canonical closed-trade record the compliance rules
// operate on.
package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a position.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// ParseDirection normalizes s (case and surrounding space) into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case Buy, Sell:
		return d, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be BUY or SELL", s)
	}
}

// AccountType classifies the funded account a trade was taken on. Rule
// applicability is configured in terms of these values.
type AccountType string

const (
	OneStepAlgo AccountType = "1-step-algo"
	TwoStep     AccountType = "2-step"
	Evaluation  AccountType = "evaluation"
)

// AccountTypes lists every known account type.
var AccountTypes = []AccountType{OneStepAlgo, TwoStep, Evaluation}

// ParseAccountType matches s case-insensitively against the known types.
func ParseAccountType(s string) (AccountType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, at := range AccountTypes {
		if string(at) == v {
			return at, nil
		}
	}
	return "", fmt.Errorf("invalid account_type %q: must be one of %v", s, AccountTypes)
}

// Valid reports whether at is a known account type.
func (at AccountType) Valid() bool {
	for _, k := range AccountTypes {
		if at == k {
			return true
		}
	}
	return false
}

// Trade is one closed position from a trader's history.
type Trade struct {
	Ticket      string          `json:"ticket"`
	OpenTime    time.Time       `json:"open_time"`
	CloseTime   time.Time       `json:"close_time"`
	Pair        string          `json:"pair"`
	Direction   Direction       `json:"direction"`
	LotSize     decimal.Decimal `json:"lot_size"`
	Profit      decimal.Decimal `json:"profit"`
	Balance     decimal.Decimal `json:"balance"`
	AccountType AccountType     `json:"account_type"`
	AccountID   string          `json:"account_id"`
}

// Validate checks the record invariants. The returned error is always a
// *ValidationError.
func (t Trade) Validate() error {
	switch {
	case strings.TrimSpace(t.Ticket) == "":
		return &ValidationError{Ticket: t.Ticket, Field: "ticket", Reason: "must not be empty"}
	case t.OpenTime.IsZero():
		return &ValidationError{Ticket: t.Ticket, Field: "open_time", Reason: "missing"}
	case t.CloseTime.IsZero():
		return &ValidationError{Ticket: t.Ticket, Field: "close_time", Reason: "missing"}
	case !t.CloseTime.After(t.OpenTime):
		return &ValidationError{Ticket: t.Ticket, Field: "close_time",
			Reason: fmt.Sprintf("close_time (%s) must be after open_time (%s)",
				t.CloseTime.Format(time.RFC3339), t.OpenTime.Format(time.RFC3339))}
	case strings.TrimSpace(t.Pair) == "":
		return &ValidationError{Ticket: t.Ticket, Field: "pair", Reason: "must not be empty"}
	case t.Direction != Buy && t.Direction != Sell:
		return &ValidationError{Ticket: t.Ticket, Field: "direction",
			Reason: fmt.Sprintf("invalid value %q: must be BUY or SELL", t.Direction)}
	case !t.LotSize.IsPositive():
		return &ValidationError{Ticket: t.Ticket, Field: "lot_size",
			Reason: fmt.Sprintf("must be > 0, got %s", t.LotSize)}
	case !t.AccountType.Valid():
		return &ValidationError{Ticket: t.Ticket, Field: "account_type",
			Reason: fmt.Sprintf("invalid value %q: must be one of %v", t.AccountType, AccountTypes)}
	case strings.TrimSpace(t.AccountID) == "":
		return &ValidationError{Ticket: t.Ticket, Field: "account_id", Reason: "must not be empty"}
	}
	return nil
}

// ValidateAll validates every record and rejects duplicate tickets. It stops
// at the first failure.
func ValidateAll(trades []Trade) error {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.Ticket]; dup {
			return &ValidationError{Ticket: t.Ticket, Field: "ticket", Reason: "duplicate ticket"}
		}
		seen[t.Ticket] = struct{}{}
	}
	return nil
}

// Duration is how long the position was held.
func (t Trade) Duration() time.Duration {
	return t.CloseTime.Sub(t.OpenTime)
}

// Overlaps reports whether the two positions were open at the same time.
// Intervals are half-open, so a trade closing at the instant another opens
// does not overlap it.
func (t Trade) Overlaps(o Trade) bool {
	return t.OpenTime.Before(o.CloseTime) && o.OpenTime.Before(t.CloseTime)
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade(ticket=%s, pair=%s, direction=%s, lot=%s, profit=%s)",
		t.Ticket, t.Pair, t.Direction, t.LotSize, t.Profit)
}
