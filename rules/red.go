package rules

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/trade"
)

const dayLayout = "2006-01-02"

// CappedProfit sums the profit of trades the Red rule applies to and clamps
// it to the account payout cap.
func CappedProfit(trades []trade.Trade, cfg *config.Config) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		if cfg.RedApplies(t.AccountType) {
			total = total.Add(t.Profit)
		}
	}
	return decimal.Min(total, cfg.PayoutCap())
}

// EvaluateRed breaches when a single UTC close day carries more than
// Red.ProfitThreshold of the capped profit. Only account types listed in
// Red.AccountTypes are considered, and at least two of them are needed for a
// concentration to be measurable.
func EvaluateRed(trades []trade.Trade, cfg *config.Config) Verdict {
	vd := newVerdict(Red)

	days := make(map[string][]trade.Trade)
	eligible := 0
	for _, t := range trades {
		if !cfg.RedApplies(t.AccountType) {
			continue
		}
		d := t.CloseTime.UTC().Format(dayLayout)
		days[d] = append(days[d], t)
		eligible++
	}
	if eligible < 2 {
		return vd
	}

	capped := CappedProfit(trades, cfg)
	if !capped.IsPositive() {
		return vd
	}
	limit := capped.Mul(decimal.NewFromFloat(cfg.Red.ProfitThreshold))

	keys := make([]string, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Strings(keys)

	for _, d := range keys {
		profit := decimal.Zero
		for _, t := range days[d] {
			profit = profit.Add(t.Profit)
		}
		if !profit.GreaterThan(limit) {
			continue
		}
		pct := profit.Div(capped).Mul(decimal.NewFromInt(100))
		vd.add(Breach, Violation{
			Tickets: tickets(days[d]),
			Day:     d,
			Reason: fmt.Sprintf("%s profit %s is %s%% of capped profit %s (limit %s%%)",
				d, profit.StringFixed(2), pct.StringFixed(1), capped.StringFixed(2),
				decimal.NewFromFloat(cfg.Red.ProfitThreshold*100).StringFixed(1)),
			Values: map[string]float64{
				"day_profit":       profit.InexactFloat64(),
				"capped_total":     capped.InexactFloat64(),
				"threshold_amount": limit.InexactFloat64(),
				"contribution_pct": pct.InexactFloat64(),
			},
		})
	}
	return vd
}
