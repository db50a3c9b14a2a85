// Package decision turns the four rule verdicts into a payout
// recommendation.
package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
)

// Recommendation is the payout outcome.
type Recommendation string

const (
	Approve Recommendation = "APPROVE"
	Reject  Recommendation = "REJECT"
	Review  Recommendation = "REVIEW"
)

const (
	ReasonRedBreach    = "single trade/day exceeds profit concentration threshold"
	ReasonOrangeBreach = "excessive grid trading detected"
	ReasonApproved     = "all compliance rules passed"
)

// Verdicts holds one verdict per rule, addressed by rule identity.
type Verdicts struct {
	Blue   rules.Verdict `json:"blue"`
	Red    rules.Verdict `json:"red"`
	Orange rules.Verdict `json:"orange"`
	Yellow rules.Verdict `json:"yellow"`
}

// Get returns the verdict for k.
func (v Verdicts) Get(k rules.Key) rules.Verdict {
	switch k {
	case rules.Blue:
		return v.Blue
	case rules.Red:
		return v.Red
	case rules.Orange:
		return v.Orange
	default:
		return v.Yellow
	}
}

// All returns the verdicts in reporting order.
func (v Verdicts) All() []rules.Verdict {
	return []rules.Verdict{v.Blue, v.Red, v.Orange, v.Yellow}
}

// Summary aggregates the run.
type Summary struct {
	TotalTrades  int             `json:"total_trades"`
	TotalLots    decimal.Decimal `json:"total_lots"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	BreachCount  int             `json:"breach_count"`
	WarningCount int             `json:"warning_count"`
	PassCount    int             `json:"pass_count"`
}

// Profit shows how the payout cap was applied.
type Profit struct {
	RawTotal    decimal.Decimal `json:"raw_total"`
	PayoutCap   decimal.Decimal `json:"payout_cap"`
	CappedTotal decimal.Decimal `json:"capped_total"`
	CapApplied  bool            `json:"cap_applied"`
}

// Decision is the terminal result of one evaluation.
type Decision struct {
	RunID          string            `json:"run_id,omitempty"`
	AccountID      string            `json:"account_id,omitempty"`
	AccountType    trade.AccountType `json:"account_type,omitempty"`
	EvaluatedAt    time.Time         `json:"evaluated_at"`
	Recommendation Recommendation    `json:"recommendation"`
	Reason         string            `json:"decision_reason"`
	Rules          Verdicts          `json:"rules"`
	Summary        Summary           `json:"summary"`
	Profit         Profit            `json:"profit_calculation"`
}

// Combine maps four verdicts to a recommendation. The precedence is fixed:
// a Red breach, then an Orange breach, then any other breach reject; any
// warning asks for review; otherwise the payout is approved.
func Combine(blue, red, orange, yellow rules.Verdict) Decision {
	d := Decision{
		Rules: Verdicts{Blue: blue, Red: red, Orange: orange, Yellow: yellow},
	}

	var breached, warned []string
	for _, v := range d.Rules.All() {
		switch v.Status {
		case rules.Breach:
			d.Summary.BreachCount++
			breached = append(breached, v.Name)
		case rules.Warning:
			d.Summary.WarningCount++
			warned = append(warned, v.Name)
		default:
			d.Summary.PassCount++
		}
	}

	switch {
	case red.Status == rules.Breach:
		d.Recommendation, d.Reason = Reject, ReasonRedBreach
	case orange.Status == rules.Breach:
		d.Recommendation, d.Reason = Reject, ReasonOrangeBreach
	case len(breached) > 0:
		d.Recommendation = Reject
		d.Reason = fmt.Sprintf("%s breach detected", strings.Join(breached, ", "))
	case len(warned) > 0:
		d.Recommendation = Review
		d.Reason = "manual review required: " + strings.Join(warned, ", ")
	default:
		d.Recommendation, d.Reason = Approve, ReasonApproved
	}
	return d
}
