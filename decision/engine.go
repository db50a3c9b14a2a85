package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/pkg/id"
	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
)

// Engine validates a trade list, runs every rule and combines the verdicts.
type Engine struct {
	cfg *config.Config

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func(time.Time) string
}

// NewEngine returns an Engine bound to a validated configuration.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, Now: time.Now, NewID: id.At}, nil
}

// Config returns the configuration the engine evaluates with.
func (e *Engine) Config() *config.Config { return e.cfg }

// Evaluate produces the Decision for trades. Invalid input yields a
// *trade.ValidationError and no Decision; a REJECT is a Decision, not an
// error.
func (e *Engine) Evaluate(ctx context.Context, trades []trade.Trade) (*Decision, error) {
	if err := trade.ValidateAll(trades); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.Now().UTC()
	runID := e.NewID(now)
	logger := log.WithFields(log.Fields{"run_id": runID, "trades": len(trades)})
	logger.Debug("evaluating compliance rules")

	// each rule writes only its own slot
	slots := make([]rules.Verdict, len(rules.Keys))
	var eg errgroup.Group
	for i, k := range rules.Keys {
		i, k := i, k
		eg.Go(func() error {
			start := time.Now()
			slots[i] = rules.For(k)(trades, e.cfg)
			logger.WithFields(log.Fields{
				"rule":       k,
				"status":     slots[i].Status,
				"violations": slots[i].ViolationCount,
				"elapsed":    time.Since(start),
			}).Debug("rule evaluated")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := Combine(slots[0], slots[1], slots[2], slots[3])
	d.RunID = runID
	d.EvaluatedAt = now
	if len(trades) > 0 {
		d.AccountID = trades[0].AccountID
		d.AccountType = trades[0].AccountType
	}
	d.Summary.TotalTrades = len(trades)
	d.Summary.TotalLots, d.Summary.TotalProfit = totals(trades)
	d.Profit = e.profit(trades)

	logger.WithFields(log.Fields{
		"account_id":     d.AccountID,
		"recommendation": d.Recommendation,
		"breaches":       d.Summary.BreachCount,
		"warnings":       d.Summary.WarningCount,
	}).Info(d.Reason)

	return &d, nil
}

func totals(trades []trade.Trade) (lots, profit decimal.Decimal) {
	for _, t := range trades {
		lots = lots.Add(t.LotSize)
		profit = profit.Add(t.Profit)
	}
	return lots, profit
}

// profit reports the payout cap arithmetic over trades the Red rule covers.
func (e *Engine) profit(trades []trade.Trade) Profit {
	raw := decimal.Zero
	for _, t := range trades {
		if e.cfg.RedApplies(t.AccountType) {
			raw = raw.Add(t.Profit)
		}
	}
	cp := e.cfg.PayoutCap()
	return Profit{
		RawTotal:    raw,
		PayoutCap:   cp,
		CappedTotal: rules.CappedProfit(trades, e.cfg),
		CapApplied:  raw.GreaterThan(cp),
	}
}
