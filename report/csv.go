package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
)

// AnnotatedRow is one input trade with the rules it tripped.
type AnnotatedRow struct {
	Ticket           string `csv:"ticket"`
	OpenTime         string `csv:"open_time"`
	CloseTime        string `csv:"close_time"`
	Pair             string `csv:"pair"`
	Direction        string `csv:"direction"`
	LotSize          string `csv:"lot_size"`
	Profit           string `csv:"profit"`
	Balance          string `csv:"balance"`
	AccountType      string `csv:"account_type"`
	AccountID        string `csv:"account_id"`
	ViolationType    string `csv:"violation_type"`
	ViolationDetails string `csv:"violation_details"`
	RuleStatus       string `csv:"rule_status"`
}

type annotation struct {
	names   []string
	reasons []string
	status  rules.Status
}

// Annotate pairs every trade with the violations that name its ticket. A
// trade tripping several rules carries the worst status.
func Annotate(trades []trade.Trade, d *decision.Decision) []*AnnotatedRow {
	notes := make(map[string]*annotation)
	for _, v := range d.Rules.All() {
		for _, vi := range v.Violations {
			for _, tk := range vi.Tickets {
				n, ok := notes[tk]
				if !ok {
					n = &annotation{status: rules.Pass}
					notes[tk] = n
				}
				if len(n.names) == 0 || n.names[len(n.names)-1] != v.Name {
					n.names = append(n.names, v.Name)
				}
				n.reasons = append(n.reasons, fmt.Sprintf("%s: %s", v.Name, vi.Reason))
				if v.Status.Worse(n.status) {
					n.status = v.Status
				}
			}
		}
	}

	rows := make([]*AnnotatedRow, 0, len(trades))
	for _, t := range trades {
		row := &AnnotatedRow{
			Ticket:      t.Ticket,
			OpenTime:    t.OpenTime.UTC().Format(time.DateTime),
			CloseTime:   t.CloseTime.UTC().Format(time.DateTime),
			Pair:        t.Pair,
			Direction:   string(t.Direction),
			LotSize:     t.LotSize.String(),
			Profit:      t.Profit.StringFixed(2),
			Balance:     t.Balance.StringFixed(2),
			AccountType: string(t.AccountType),
			AccountID:   t.AccountID,
			RuleStatus:  string(rules.Pass),
		}
		if n, ok := notes[t.Ticket]; ok {
			row.ViolationType = strings.Join(n.names, "; ")
			row.ViolationDetails = strings.Join(n.reasons, " | ")
			row.RuleStatus = string(n.status)
		}
		rows = append(rows, row)
	}
	return rows
}

// AnnotatedCSV writes the trades in canonical column order followed by
// violation_type, violation_details and rule_status.
func AnnotatedCSV(w io.Writer, trades []trade.Trade, d *decision.Decision) error {
	rows := Annotate(trades, d)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write annotated trades: %w", err)
	}
	return nil
}
