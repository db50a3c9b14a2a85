package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/trade"
)

// EvaluateYellow flags martingale escalation: a trade opened while its
// predecessor on the same pair and direction is still running, with a larger
// lot. With Yellow.UseMultiplier the increase must reach Yellow.LotMultiplier
// times the previous lot.
func EvaluateYellow(trades []trade.Trade, cfg *config.Config) Verdict {
	vd := newVerdict(Yellow)
	mult := decimal.NewFromFloat(cfg.Yellow.LotMultiplier)

	order, groups := bySide(trades)
	for _, k := range order {
		sorted := byOpen(groups[k])
		for i := 1; i < len(sorted); i++ {
			prev, cur := sorted[i-1], sorted[i]
			if !cur.Overlaps(prev) {
				continue
			}

			escalated := cur.LotSize.GreaterThan(prev.LotSize)
			if cfg.Yellow.UseMultiplier {
				escalated = cur.LotSize.GreaterThanOrEqual(prev.LotSize.Mul(mult))
			}
			if !escalated {
				continue
			}

			ratio := cur.LotSize.Div(prev.LotSize)
			vd.add(Warning, Violation{
				Tickets:   []string{prev.Ticket, cur.Ticket},
				Pair:      k.pair,
				Direction: k.dir,
				Reason: fmt.Sprintf("lot raised from %s to %s (%sx) while ticket %s was open",
					prev.LotSize, cur.LotSize, ratio.StringFixed(2), prev.Ticket),
				Values: map[string]float64{
					"previous_lot": prev.LotSize.InexactFloat64(),
					"lot_size":     cur.LotSize.InexactFloat64(),
					"ratio":        ratio.InexactFloat64(),
				},
			})
		}
	}
	return vd
}
