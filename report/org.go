package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/payout/decision"
)

// Org renders d as an Org-mode entry for a review journal. Structured facts
// go in the PROPERTIES drawer; each rule with violations gets a sub-heading
// followed by an empty Notes section for the reviewer.
func Org(d *decision.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "** Payout review: %s %s (%s)\n", d.AccountID, d.Recommendation, shortID(d.RunID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":RUN_ID: %s\n", d.RunID)
	fmt.Fprintf(&b, ":ACCOUNT_ID: %s\n", d.AccountID)
	fmt.Fprintf(&b, ":ACCOUNT_TYPE: %s\n", d.AccountType)
	fmt.Fprintf(&b, ":EVALUATED_AT: %s\n", d.EvaluatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":RECOMMENDATION: %s\n", d.Recommendation)
	fmt.Fprintf(&b, ":REASON: %s\n", d.Reason)
	fmt.Fprintf(&b, ":TRADES: %d\n", d.Summary.TotalTrades)
	fmt.Fprintf(&b, ":TOTAL_PROFIT: %s\n", d.Summary.TotalProfit.StringFixed(2))
	fmt.Fprintf(&b, ":CAPPED_PROFIT: %s\n", d.Profit.CappedTotal.StringFixed(2))
	for _, v := range d.Rules.All() {
		fmt.Fprintf(&b, ":%s: %s\n", strings.ToUpper(string(v.Rule)), v.Status)
	}
	b.WriteString(":END:\n")

	for _, v := range d.Rules.All() {
		if v.ViolationCount == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*** %s %s\n", v.Name, v.Status)
		for _, vi := range v.Violations {
			fmt.Fprintf(&b, "- [%s] %s\n", strings.Join(vi.Tickets, ", "), vi.Reason)
		}
	}
	b.WriteString("\n*** Notes\n- \n")

	return b.String()
}

// Orgs renders several decisions separated by blank lines.
func Orgs(ds []*decision.Decision) string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Org(d))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
