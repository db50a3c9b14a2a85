package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
	"github.com/rustyeddy/payout/trade/tradetest"
)

// gridHistory is a three trade EURUSD grid with an escalating last lot plus
// one unrelated losing trade the next day.
func gridHistory() []trade.Trade {
	trades := tradetest.Stack("G", 3, "EURUSD", trade.Buy, "1.00")
	trades[2].LotSize = decimal.RequireFromString("1.50")
	trades = append(trades, tradetest.Builder{
		Ticket:     "X1",
		OpenOffset: 24 * time.Hour,
		Pair:       "USDJPY",
		Lot:        "1.00",
		Profit:     "-12.50",
	}.Trade())
	return trades
}

func evaluate(t *testing.T, trades []trade.Trade) *decision.Decision {
	t.Helper()
	e, err := decision.NewEngine(nil)
	require.NoError(t, err)
	d, err := e.Evaluate(context.Background(), trades)
	require.NoError(t, err)
	return d
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	d := evaluate(t, gridHistory())
	require.Equal(t, decision.Review, d.Recommendation)

	for _, pretty := range []bool{true, false} {
		b, err := JSON(d, pretty)
		require.NoError(t, err)

		got, err := ParseJSON(b)
		require.NoError(t, err)

		assert.Equal(t, d.Recommendation, got.Recommendation)
		assert.Equal(t, d.Reason, got.Reason)
		for _, k := range rules.Keys {
			assert.Equal(t, d.Rules.Get(k).ViolationCount, got.Rules.Get(k).ViolationCount, k)
			assert.Equal(t, d.Rules.Get(k).Status, got.Rules.Get(k).Status, k)
		}
		assert.Equal(t, d.Summary.TotalTrades, got.Summary.TotalTrades)
		assert.True(t, d.Summary.TotalProfit.Equal(got.Summary.TotalProfit))
		assert.True(t, d.Summary.TotalLots.Equal(got.Summary.TotalLots))
		assert.Equal(t, d.Summary.BreachCount, got.Summary.BreachCount)
		assert.Equal(t, d.Summary.WarningCount, got.Summary.WarningCount)
		assert.Equal(t, d.Summary.PassCount, got.Summary.PassCount)
		assert.True(t, d.EvaluatedAt.Equal(got.EvaluatedAt))
		assert.Equal(t, d.RunID, got.RunID)
	}
}

func TestJSONFieldNames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, evaluate(t, gridHistory()), false))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	for _, key := range []string{`"recommendation":"REVIEW"`, `"decision_reason"`, `"violation_count"`, `"profit_calculation"`, `"cap_applied"`} {
		assert.Contains(t, out, key)
	}

	_, err := ParseJSON([]byte("{"))
	assert.Error(t, err)
}

func TestAnnotatedCSV(t *testing.T) {
	t.Parallel()

	trades := gridHistory()
	d := evaluate(t, trades)

	var buf bytes.Buffer
	require.NoError(t, AnnotatedCSV(&buf, trades, d))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "ticket,open_time,close_time,pair,direction,lot_size,profit,balance,account_type,account_id,violation_type,violation_details,rule_status", header)

	var rows []*AnnotatedRow
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &rows))
	require.Len(t, rows, 4)

	byTicket := map[string]*AnnotatedRow{}
	for _, r := range rows {
		byTicket[r.Ticket] = r
	}

	assert.Equal(t, "WARNING", byTicket["G1"].RuleStatus)
	assert.Equal(t, "Grid/Stacking", byTicket["G1"].ViolationType)

	// G3 is in the grid and escalates over G2
	assert.Equal(t, "WARNING", byTicket["G3"].RuleStatus)
	assert.Contains(t, byTicket["G3"].ViolationType, "Grid/Stacking")
	assert.Contains(t, byTicket["G3"].ViolationType, "Martingale")
	assert.Contains(t, byTicket["G3"].ViolationDetails, "Martingale: lot raised")

	assert.Equal(t, "PASS", byTicket["X1"].RuleStatus)
	assert.Empty(t, byTicket["X1"].ViolationType)
	assert.Equal(t, "-12.50", byTicket["X1"].Profit)
	assert.Equal(t, "2024-05-07 09:00:00", byTicket["X1"].OpenTime)
}

func TestAnnotateWorstStatusWins(t *testing.T) {
	t.Parallel()

	trades := tradetest.Stack("G", 5, "EURUSD", trade.Buy, "1")
	trades[4].LotSize = decimal.NewFromInt(2)
	d := evaluate(t, trades)

	rows := Annotate(trades, d)
	assert.Equal(t, "BREACH", rows[4].RuleStatus)
	assert.Contains(t, rows[4].ViolationType, "Martingale")
}

func TestText(t *testing.T) {
	t.Parallel()

	trades := gridHistory()
	d := evaluate(t, trades)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, d, trades))
	out := buf.String()

	assert.Contains(t, out, "Recommendation: REVIEW")
	assert.Contains(t, out, "Grid/Stacking")
	assert.Contains(t, out, "Total profit:   -$12.50")
	assert.Contains(t, out, "Payout cap:     $6,000.00")
	assert.Contains(t, out, "median 1.00, range 1.00-1.50")
	assert.Contains(t, out, "Violations:")
}

func TestMoneyAndLots(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,234,567.89", Money(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "-$40.00", Money(decimal.NewFromInt(-40)))
	assert.Equal(t, LotStats{}, Lots(nil))

	ls := Lots(tradetest.Spaced(3, time.Hour, time.Minute, "2", "0"))
	assert.Equal(t, LotStats{Mean: 2, Median: 2, Min: 2, Max: 2}, ls)
}

func TestOrg(t *testing.T) {
	t.Parallel()

	d := evaluate(t, gridHistory())
	out := Org(d)

	assert.True(t, strings.HasPrefix(out, "** Payout review: ACC-TEST REVIEW ("+d.RunID[:8]+")"))
	assert.Contains(t, out, ":RUN_ID: "+d.RunID+"\n")
	assert.Contains(t, out, ":ORANGE: WARNING\n")
	assert.Contains(t, out, ":RED: PASS\n")
	assert.Contains(t, out, "*** Grid/Stacking WARNING\n- [G1, G2, G3] 3 simultaneous EURUSD BUY trades\n")
	assert.NotContains(t, out, "*** Lot Consistency")
	assert.True(t, strings.HasSuffix(out, "*** Notes\n- \n"))

	both := Orgs([]*decision.Decision{d, d})
	assert.Equal(t, 2, strings.Count(both, "** Payout review:"))
}
