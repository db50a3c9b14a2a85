package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/trade"
)

// EvaluateOrange looks for grids: sets of same pair, same direction trades
// that were all open at once. A cluster of Orange.MinSimultaneous trades is
// a warning; Orange.BreachThreshold or more is a breach.
func EvaluateOrange(trades []trade.Trade, cfg *config.Config) Verdict {
	vd := newVerdict(Orange)

	order, groups := bySide(trades)
	for _, k := range order {
		for _, cluster := range overlapClusters(groups[k]) {
			n := len(cluster)
			if n < cfg.Orange.MinSimultaneous {
				continue
			}
			status := Warning
			if n >= cfg.Orange.BreachThreshold {
				status = Breach
			}
			vd.add(status, Violation{
				Tickets:   tickets(cluster),
				Pair:      k.pair,
				Direction: k.dir,
				Reason:    fmt.Sprintf("%d simultaneous %s %s trades", n, k.pair, k.dir),
				Values: map[string]float64{
					"simultaneous":     float64(n),
					"min_simultaneous": float64(cfg.Orange.MinSimultaneous),
					"breach_threshold": float64(cfg.Orange.BreachThreshold),
				},
			})
		}
	}
	return vd
}

type edge struct {
	at    time.Time
	open  bool
	trade trade.Trade
}

// overlapClusters returns the maximal sets of pairwise overlapping trades.
// Intervals are half-open, so at equal instants closes sweep before opens.
// Each time a close follows one or more opens the active set is maximal.
func overlapClusters(ts []trade.Trade) [][]trade.Trade {
	edges := make([]edge, 0, 2*len(ts))
	for _, t := range ts {
		edges = append(edges, edge{at: t.OpenTime, open: true, trade: t}, edge{at: t.CloseTime, trade: t})
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		if a.open != b.open {
			return !a.open
		}
		return a.trade.Ticket < b.trade.Ticket
	})

	var clusters [][]trade.Trade
	var active []trade.Trade
	grew := false
	for _, e := range edges {
		if e.open {
			active = append(active, e.trade)
			grew = true
			continue
		}
		if grew {
			clusters = append(clusters, append([]trade.Trade(nil), active...))
			grew = false
		}
		for i, a := range active {
			if a.Ticket == e.trade.Ticket {
				active = append(active[:i], active[i+1:]...)
				break
			}
		}
	}
	return clusters
}
