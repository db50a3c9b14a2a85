package sheets

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/sheets/v4"

	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/ingest"
	"github.com/rustyeddy/payout/report"
	"github.com/rustyeddy/payout/rules"
	"github.com/rustyeddy/payout/trade"
)

var (
	green  = &sheets.Color{Red: 0.8, Green: 1.0, Blue: 0.8}
	orange = &sheets.Color{Red: 1.0, Green: 0.85, Blue: 0.6}
	red    = &sheets.Color{Red: 1.0, Green: 0.8, Blue: 0.8}
	grey   = &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9}
)

// StatusColor is the row background for a rule status.
func StatusColor(s rules.Status) *sheets.Color {
	switch s {
	case rules.Breach:
		return red
	case rules.Warning:
		return orange
	case rules.Pass:
		return green
	default:
		return grey
	}
}

// RecommendationColor is the background of the decision row.
func RecommendationColor(r decision.Recommendation) *sheets.Color {
	switch r {
	case decision.Reject:
		return red
	case decision.Review:
		return orange
	case decision.Approve:
		return green
	default:
		return grey
	}
}

// Table is the content of one tab: rows of cells plus the background of
// selected rows, keyed by zero based row index. Row 0 is a header.
type Table struct {
	Rows  [][]interface{}
	Shade map[int]*sheets.Color
	Cols  int
}

// ResultRows lays out the Results tab for d.
func ResultRows(d *decision.Decision) Table {
	t := Table{Shade: make(map[int]*sheets.Color), Cols: 3}
	row := func(cells ...interface{}) int {
		if cells == nil {
			cells = []interface{}{}
		}
		t.Rows = append(t.Rows, cells)
		return len(t.Rows) - 1
	}

	row("Field", "Value", "Details")
	row("Run ID", d.RunID, "")
	row("Evaluated At", d.EvaluatedAt.UTC().Format(time.RFC3339), "")
	row("Account ID", d.AccountID, "")
	row("Account Type", string(d.AccountType), "")
	row("Raw Total Profit", report.Money(d.Profit.RawTotal), "")
	row("Payout Cap Amount", report.Money(d.Profit.PayoutCap), "")
	row("Capped Payout Amount", report.Money(d.Profit.CappedTotal),
		fmt.Sprintf("Cap applied: %t", d.Profit.CapApplied))
	row()
	t.Shade[row("Overall Decision", string(d.Recommendation), d.Reason)] = RecommendationColor(d.Recommendation)
	row()
	row("Rule", "Status", "Details")
	for _, v := range d.Rules.All() {
		t.Shade[row(v.Name, string(v.Status), ruleDetail(v))] = StatusColor(v.Status)
	}
	row()
	row("Summary", "", "")
	row("Total Trades", d.Summary.TotalTrades, "")
	row("Total Lots", d.Summary.TotalLots.String(), "")
	row("Breaches", d.Summary.BreachCount, "")
	row("Warnings", d.Summary.WarningCount, "")
	row("Passes", d.Summary.PassCount, "")
	return t
}

func ruleDetail(v rules.Verdict) string {
	switch v.ViolationCount {
	case 0:
		return "No violations"
	case 1:
		return "1 violation: " + v.Violations[0].Reason
	default:
		return fmt.Sprintf("%d violations, first: %s", v.ViolationCount, v.Violations[0].Reason)
	}
}

// TradeRows lays out the Colored Trades tab, shading each trade by the
// worst status it earned.
func TradeRows(rows []*report.AnnotatedRow) Table {
	header := append(append([]string(nil), ingest.Columns...), "violation_type", "violation_details", "rule_status")
	t := Table{Shade: make(map[int]*sheets.Color), Cols: len(header)}

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	t.Rows = append(t.Rows, cells)

	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			r.Ticket, r.OpenTime, r.CloseTime, r.Pair, r.Direction,
			r.LotSize, r.Profit, r.Balance, r.AccountType, r.AccountID,
			r.ViolationType, r.ViolationDetails, r.RuleStatus,
		})
		if s := rules.Status(r.RuleStatus); s != rules.Pass {
			t.Shade[len(t.Rows)-1] = StatusColor(s)
		}
	}
	return t
}

// formatRequests bolds the header and shades rows, in row order.
func formatRequests(sheetID int64, t Table) []*sheets.Request {
	reqs := []*sheets.Request{{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1,
				StartColumnIndex: 0, EndColumnIndex: int64(t.Cols)},
			Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}}},
			Fields: "userEnteredFormat.textFormat.bold",
		},
	}}

	idx := make([]int, 0, len(t.Shade))
	for i := range t.Shade {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: int64(i), EndRowIndex: int64(i + 1),
					StartColumnIndex: 0, EndColumnIndex: int64(t.Cols)},
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{BackgroundColor: t.Shade[i]}},
				Fields: "userEnteredFormat.backgroundColor",
			},
		})
	}
	return reqs
}

// WriteResults replaces the Results tab with d. When trades is non-empty a
// Colored Trades tab is rebuilt as well.
func (c *Client) WriteResults(ctx context.Context, spreadsheetID string, d *decision.Decision, trades []trade.Trade) error {
	tables := map[string]Table{ResultsTab: ResultRows(d)}
	order := []string{ResultsTab}
	if len(trades) > 0 {
		tables[ColoredTradesTab] = TradeRows(report.Annotate(trades, d))
		order = append(order, ColoredTradesTab)
	}

	ids, err := c.recreateTabs(ctx, spreadsheetID, order, tables)
	if err != nil {
		return err
	}

	var formats []*sheets.Request
	for _, name := range order {
		t := tables[name]
		vr := &sheets.ValueRange{Values: t.Rows}
		_, err := c.srv.Spreadsheets.Values.Update(spreadsheetID, a1(name, "A1"), vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write %s tab: %w", name, err)
		}
		formats = append(formats, formatRequests(ids[name], t)...)
	}

	_, err = c.srv.Spreadsheets.BatchUpdate(spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: formats}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("format results: %w", err)
	}

	log.WithFields(log.Fields{
		"spreadsheet":    spreadsheetID,
		"run_id":         d.RunID,
		"recommendation": d.Recommendation,
	}).Info("results written")
	return nil
}

// recreateTabs deletes the named tabs when they exist and adds them back
// empty, returning the new sheet ids.
func (c *Client) recreateTabs(ctx context.Context, spreadsheetID string, names []string, tables map[string]Table) (map[string]int64, error) {
	existing, err := c.tabs(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	var reqs []*sheets.Request
	for _, name := range names {
		if id, ok := existing[name]; ok {
			reqs = append(reqs, &sheets.Request{DeleteSheet: &sheets.DeleteSheetRequest{SheetId: id}})
		}
	}
	for _, name := range names {
		t := tables[name]
		reqs = append(reqs, &sheets.Request{AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: name,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(max(100, len(t.Rows)+10)),
					ColumnCount: int64(max(10, t.Cols)),
				},
			},
		}})
	}

	resp, err := c.srv.Spreadsheets.BatchUpdate(spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("recreate tabs: %w", err)
	}

	ids := make(map[string]int64, len(names))
	for _, r := range resp.Replies {
		if r != nil && r.AddSheet != nil && r.AddSheet.Properties != nil {
			ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
		}
	}
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			return nil, fmt.Errorf("recreate tabs: no id returned for %s", name)
		}
	}
	return ids, nil
}
