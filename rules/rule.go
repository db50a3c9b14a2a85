// Package rules implements the four payout compliance checks. Each
// evaluator is a pure function of the trade list and configuration.
package rules

import (
	"sort"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/trade"
)

// Status is the outcome of one rule.
type Status string

const (
	Pass    Status = "PASS"
	Warning Status = "WARNING"
	Breach  Status = "BREACH"
)

// rank orders statuses by severity.
func (s Status) rank() int {
	switch s {
	case Breach:
		return 2
	case Warning:
		return 1
	default:
		return 0
	}
}

// Worse reports whether s is more severe than o.
func (s Status) Worse(o Status) bool { return s.rank() > o.rank() }

// Key identifies a rule.
type Key string

const (
	Blue   Key = "blue"
	Red    Key = "red"
	Orange Key = "orange"
	Yellow Key = "yellow"
)

// Keys lists the rules in reporting order.
var Keys = []Key{Blue, Red, Orange, Yellow}

// Name is the display name of the rule.
func (k Key) Name() string {
	switch k {
	case Blue:
		return "Lot Consistency"
	case Red:
		return "Profit Consistency"
	case Orange:
		return "Grid/Stacking"
	case Yellow:
		return "Martingale"
	default:
		return string(k)
	}
}

// Violation is one offending trade or group of trades.
type Violation struct {
	Tickets   []string           `json:"tickets"`
	Pair      string             `json:"pair,omitempty"`
	Direction trade.Direction    `json:"direction,omitempty"`
	Day       string             `json:"day,omitempty"`
	Reason    string             `json:"reason"`
	Values    map[string]float64 `json:"values,omitempty"`
}

// Verdict is the result of one rule over the whole trade list.
type Verdict struct {
	Rule           Key         `json:"rule"`
	Name           string      `json:"name"`
	Status         Status      `json:"status"`
	ViolationCount int         `json:"violation_count"`
	Violations     []Violation `json:"violations"`
}

func newVerdict(k Key) Verdict {
	return Verdict{Rule: k, Name: k.Name(), Status: Pass, Violations: []Violation{}}
}

// add records v and raises the verdict to at least s.
func (vd *Verdict) add(s Status, v Violation) {
	vd.Violations = append(vd.Violations, v)
	vd.ViolationCount = len(vd.Violations)
	if s.Worse(vd.Status) {
		vd.Status = s
	}
}

// Func evaluates one rule.
type Func func(trades []trade.Trade, cfg *config.Config) Verdict

// For returns the evaluator for k, or nil for an unknown key.
func For(k Key) Func {
	switch k {
	case Blue:
		return EvaluateBlue
	case Red:
		return EvaluateRed
	case Orange:
		return EvaluateOrange
	case Yellow:
		return EvaluateYellow
	default:
		return nil
	}
}

// side is the (pair, direction) partition key shared by Orange and Yellow.
type side struct {
	pair string
	dir  trade.Direction
}

// bySide partitions trades by pair and direction. Keys come back sorted by
// pair then direction.
func bySide(trades []trade.Trade) ([]side, map[side][]trade.Trade) {
	groups := make(map[side][]trade.Trade)
	var order []side
	for _, t := range trades {
		k := side{pair: t.Pair, dir: t.Direction}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].pair != order[j].pair {
			return order[i].pair < order[j].pair
		}
		return order[i].dir < order[j].dir
	})
	return order, groups
}

// byOpen sorts trades by open time, ticket breaking ties.
func byOpen(ts []trade.Trade) []trade.Trade {
	out := append([]trade.Trade(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OpenTime.Equal(out[j].OpenTime) {
			return out[i].OpenTime.Before(out[j].OpenTime)
		}
		return out[i].Ticket < out[j].Ticket
	})
	return out
}

func tickets(ts []trade.Trade) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Ticket
	}
	return out
}
