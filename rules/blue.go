package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/trade"
)

// EvaluateBlue flags trades whose lot size strays from the average of the
// burst they were opened in. A burst is a chain of trades each opened within
// Blue.TimeWindow seconds of the previous one, across all pairs.
func EvaluateBlue(trades []trade.Trade, cfg *config.Config) Verdict {
	vd := newVerdict(Blue)

	low := decimal.NewFromFloat(cfg.Blue.LotLowMult)
	high := decimal.NewFromFloat(cfg.Blue.LotHighMult)

	for _, group := range proximityGroups(byOpen(trades), time.Duration(cfg.Blue.TimeWindow)*time.Second) {
		if len(group) < 2 {
			continue
		}

		sum := decimal.Zero
		for _, t := range group {
			sum = sum.Add(t.LotSize)
		}
		avg := sum.Div(decimal.NewFromInt(int64(len(group))))
		lo, hi := avg.Mul(low), avg.Mul(high)

		for _, t := range group {
			if t.LotSize.GreaterThanOrEqual(lo) && t.LotSize.LessThanOrEqual(hi) {
				continue
			}
			vd.add(Warning, Violation{
				Tickets:   []string{t.Ticket},
				Pair:      t.Pair,
				Direction: t.Direction,
				Reason: fmt.Sprintf("lot %s outside [%s, %s] for a group of %d trades averaging %s",
					t.LotSize, lo.Round(2), hi.Round(2), len(group), avg.Round(2)),
				Values: map[string]float64{
					"lot_size":   t.LotSize.InexactFloat64(),
					"group_avg":  avg.InexactFloat64(),
					"lower":      lo.InexactFloat64(),
					"upper":      hi.InexactFloat64(),
					"group_size": float64(len(group)),
				},
			})
		}
	}
	return vd
}

// proximityGroups splits open-time ordered trades wherever the gap between
// consecutive opens exceeds window.
func proximityGroups(sorted []trade.Trade, window time.Duration) [][]trade.Trade {
	var groups [][]trade.Trade
	var cur []trade.Trade
	for _, t := range sorted {
		if len(cur) > 0 && t.OpenTime.Sub(cur[len(cur)-1].OpenTime) > window {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}
