package decision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
	"github.com/rustyeddy/payout/trade/tradetest"
)

func verdict(k rules.Key, s rules.Status) rules.Verdict {
	v := rules.Verdict{Rule: k, Name: k.Name(), Status: s, Violations: []rules.Violation{}}
	if s != rules.Pass {
		v.Violations = append(v.Violations, rules.Violation{Tickets: []string{"1"}, Reason: "x"})
		v.ViolationCount = 1
	}
	return v
}

func TestCombinePrecedence(t *testing.T) {
	t.Parallel()

	P, W, B := rules.Pass, rules.Warning, rules.Breach

	tests := []struct {
		blue, red, orange, yellow rules.Status
		want                      Recommendation
		reason                    string
	}{
		{P, P, P, P, Approve, ReasonApproved},
		{W, P, P, P, Review, "manual review required: Lot Consistency"},
		{W, P, W, W, Review, "manual review required: Lot Consistency, Grid/Stacking, Martingale"},
		{P, B, P, P, Reject, ReasonRedBreach},
		{W, B, B, W, Reject, ReasonRedBreach},
		{P, P, B, P, Reject, ReasonOrangeBreach},
		{W, P, B, W, Reject, ReasonOrangeBreach},
		{B, P, P, W, Reject, "Lot Consistency breach detected"},
		{P, P, P, B, Reject, "Martingale breach detected"},
	}

	for _, tt := range tests {
		tt := tt
		name := fmt.Sprintf("%s-%s-%s-%s", tt.blue, tt.red, tt.orange, tt.yellow)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			d := Combine(
				verdict(rules.Blue, tt.blue),
				verdict(rules.Red, tt.red),
				verdict(rules.Orange, tt.orange),
				verdict(rules.Yellow, tt.yellow),
			)
			assert.Equal(t, tt.want, d.Recommendation)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, 4, d.Summary.BreachCount+d.Summary.WarningCount+d.Summary.PassCount)
		})
	}
}

func TestCombineIsTotalAndDeterministic(t *testing.T) {
	t.Parallel()

	statuses := []rules.Status{rules.Pass, rules.Warning, rules.Breach}
	for _, b := range statuses {
		for _, r := range statuses {
			for _, o := range statuses {
				for _, y := range statuses {
					vb, vr := verdict(rules.Blue, b), verdict(rules.Red, r)
					vo, vy := verdict(rules.Orange, o), verdict(rules.Yellow, y)

					d1 := Combine(vb, vr, vo, vy)
					d2 := Combine(vb, vr, vo, vy)
					assert.Equal(t, d1, d2)
					assert.Contains(t, []Recommendation{Approve, Reject, Review}, d1.Recommendation)
					assert.NotEmpty(t, d1.Reason)
				}
			}
		}
	}
}

func fixedEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return at }
	e.NewID = func(time.Time) string { return "01HZTESTRUN0000000000000000" }
	return e
}

func TestEngineCleanHistoryApproves(t *testing.T) {
	t.Parallel()

	// 47 equal trades four hours apart, at most six closing on any day
	trades := tradetest.Spaced(47, 4*time.Hour, 10*time.Minute, "0.50", "10")

	d, err := fixedEngine(t, nil).Evaluate(context.Background(), trades)
	require.NoError(t, err)

	assert.Equal(t, Approve, d.Recommendation)
	assert.Equal(t, ReasonApproved, d.Reason)
	for _, v := range d.Rules.All() {
		assert.Equal(t, rules.Pass, v.Status, v.Rule)
	}
	assert.Equal(t, 47, d.Summary.TotalTrades)
	assert.Equal(t, "23.5", d.Summary.TotalLots.String())
	assert.Equal(t, "470", d.Summary.TotalProfit.String())
	assert.Equal(t, 4, d.Summary.PassCount)
	assert.Equal(t, "ACC-TEST", d.AccountID)
	assert.Equal(t, trade.OneStepAlgo, d.AccountType)
	assert.Equal(t, "01HZTESTRUN0000000000000000", d.RunID)
	assert.False(t, d.Profit.CapApplied)
	assert.Equal(t, "470", d.Profit.CappedTotal.String())
}

func TestEngineConcentratedDayRejects(t *testing.T) {
	t.Parallel()

	day := 24 * time.Hour
	trades := []trade.Trade{
		tradetest.Builder{Ticket: "1", Profit: "450"}.Trade(),
		tradetest.Builder{Ticket: "2", OpenOffset: day, Profit: "275"}.Trade(),
		tradetest.Builder{Ticket: "3", OpenOffset: 2 * day, Profit: "275"}.Trade(),
	}

	d, err := fixedEngine(t, nil).Evaluate(context.Background(), trades)
	require.NoError(t, err)
	assert.Equal(t, rules.Breach, d.Rules.Red.Status)
	assert.Equal(t, Reject, d.Recommendation)
	assert.Equal(t, ReasonRedBreach, d.Reason)
}

func TestEngineThreeStackedReviews(t *testing.T) {
	t.Parallel()

	d, err := fixedEngine(t, nil).Evaluate(context.Background(),
		tradetest.Stack("G", 3, "EURUSD", trade.Buy, "1.00"))
	require.NoError(t, err)

	assert.Equal(t, rules.Warning, d.Rules.Orange.Status)
	assert.Equal(t, rules.Pass, d.Rules.Blue.Status)
	assert.Equal(t, rules.Pass, d.Rules.Red.Status)
	assert.Equal(t, rules.Pass, d.Rules.Yellow.Status)
	assert.Equal(t, Review, d.Recommendation)
	assert.Equal(t, "manual review required: Grid/Stacking", d.Reason)
}

func TestEngineFiveStackedRejectsRegardless(t *testing.T) {
	t.Parallel()

	trades := tradetest.Stack("G", 5, "EURUSD", trade.Buy, "1.00")
	// escalate the last lot so Blue and Yellow warn as well
	trades[4].LotSize = decimal.NewFromInt(3)

	d, err := fixedEngine(t, nil).Evaluate(context.Background(), trades)
	require.NoError(t, err)

	assert.Equal(t, rules.Breach, d.Rules.Orange.Status)
	assert.Equal(t, rules.Warning, d.Rules.Yellow.Status)
	assert.Equal(t, Reject, d.Recommendation)
	assert.Equal(t, ReasonOrangeBreach, d.Reason)
}

func TestEngineRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	bad := tradetest.Spaced(2, time.Hour, time.Minute, "1", "0")
	bad[1].CloseTime = bad[1].OpenTime

	d, err := fixedEngine(t, nil).Evaluate(context.Background(), bad)
	assert.Nil(t, d)
	var ve *trade.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "T2", ve.Ticket)
	assert.Equal(t, "close_time", ve.Field)
}

func TestEngineEmptyInput(t *testing.T) {
	t.Parallel()

	d, err := fixedEngine(t, nil).Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Approve, d.Recommendation)
	assert.Zero(t, d.Summary.TotalTrades)
	assert.True(t, d.Summary.TotalProfit.IsZero())
}

func TestEngineCapApplied(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Account.Size = 10000 // cap 600
	trades := tradetest.Spaced(10, 24*time.Hour, time.Hour, "1", "100")

	d, err := fixedEngine(t, cfg).Evaluate(context.Background(), trades)
	require.NoError(t, err)
	assert.True(t, d.Profit.CapApplied)
	assert.Equal(t, "1000", d.Profit.RawTotal.String())
	assert.Equal(t, "600", d.Profit.PayoutCap.String())
	assert.Equal(t, "600", d.Profit.CappedTotal.String())
	assert.Equal(t, Approve, d.Recommendation)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Blue.TimeWindow = -1
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestEngineHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fixedEngine(t, nil).Evaluate(ctx, tradetest.Spaced(2, time.Hour, time.Minute, "1", "1"))
	assert.ErrorIs(t, err, context.Canceled)
}
