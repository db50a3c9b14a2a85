package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/trade"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount in account currency with thousands separators.
func Money(d decimal.Decimal) string {
	f := d.InexactFloat64()
	if f < 0 {
		return "-$" + printer.Sprintf("%.2f", -f)
	}
	return "$" + printer.Sprintf("%.2f", f)
}

// LotStats summarizes position sizes.
type LotStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Lots computes lot size statistics. It returns the zero value for no trades.
func Lots(trades []trade.Trade) LotStats {
	if len(trades) == 0 {
		return LotStats{}
	}
	data := make(stats.Float64Data, len(trades))
	for i, t := range trades {
		data[i] = t.LotSize.InexactFloat64()
	}
	var ls LotStats
	ls.Mean, _ = stats.Mean(data)
	ls.Median, _ = stats.Median(data)
	ls.Min, _ = stats.Min(data)
	ls.Max, _ = stats.Max(data)
	return ls
}

// Text writes a console summary of d. trades may be nil when only the
// decision is at hand, in which case lot statistics are omitted.
func Text(w io.Writer, d *decision.Decision, trades []trade.Trade) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommendation: %s\n", d.Recommendation)
	fmt.Fprintf(&b, "Reason:         %s\n", d.Reason)
	if d.RunID != "" {
		fmt.Fprintf(&b, "Run:            %s\n", d.RunID)
	}
	if d.AccountID != "" {
		fmt.Fprintf(&b, "Account:        %s (%s)\n", d.AccountID, d.AccountType)
	}
	b.WriteString("\n")

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Rule", "Name", "Status", "Violations"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, v := range d.Rules.All() {
		table.Append([]string{string(v.Rule), v.Name, string(v.Status), strconv.Itoa(v.ViolationCount)})
	}
	table.Render()
	b.WriteString("\n")

	s := d.Summary
	fmt.Fprintf(&b, "Trades:         %d\n", s.TotalTrades)
	fmt.Fprintf(&b, "Total lots:     %s\n", s.TotalLots.StringFixed(2))
	fmt.Fprintf(&b, "Total profit:   %s\n", Money(s.TotalProfit))
	fmt.Fprintf(&b, "Payout cap:     %s\n", Money(d.Profit.PayoutCap))
	fmt.Fprintf(&b, "Capped profit:  %s", Money(d.Profit.CappedTotal))
	if d.Profit.CapApplied {
		b.WriteString(" (cap applied)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Verdicts:       %d breach, %d warning, %d pass\n", s.BreachCount, s.WarningCount, s.PassCount)

	if len(trades) > 0 {
		ls := Lots(trades)
		fmt.Fprintf(&b, "Lot size:       mean %.2f, median %.2f, range %.2f-%.2f\n", ls.Mean, ls.Median, ls.Min, ls.Max)
	}

	if hasViolations(d) {
		b.WriteString("\nViolations:\n")
		vt := tablewriter.NewWriter(&b)
		vt.SetHeader([]string{"Rule", "Status", "Tickets", "Reason"})
		vt.SetAutoWrapText(false)
		vt.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, v := range d.Rules.All() {
			for _, vi := range v.Violations {
				vt.Append([]string{v.Name, string(v.Status), strings.Join(vi.Tickets, " "), vi.Reason})
			}
		}
		vt.Render()
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func hasViolations(d *decision.Decision) bool {
	for _, v := range d.Rules.All() {
		if v.ViolationCount > 0 {
			return true
		}
	}
	return false
}
