package sheets

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/ingest"
	"github.com/rustyeddy/payout/trade"
)

// FetchTrades reads the Trades tab. The first row is the header; both the
// canonical and MT4/MT5 layouts are accepted.
func (c *Client) FetchTrades(ctx context.Context, spreadsheetID string, opts ingest.Options) ([]trade.Trade, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, a1(TradesTab, "A:Z")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s tab: %w", TradesTab, err)
	}

	trades, err := ingest.ParseRecords(records(resp.Values), opts)
	if err != nil {
		return nil, fmt.Errorf("%s tab: %w", TradesTab, err)
	}
	log.WithFields(log.Fields{"spreadsheet": spreadsheetID, "trades": len(trades)}).Debug("trades fetched")
	return trades, nil
}

// FetchConfig reads the Parameter/Value rows of the Config tab. A
// spreadsheet without that tab gets the default configuration.
func (c *Client) FetchConfig(ctx context.Context, spreadsheetID string) (*config.Config, error) {
	tabs, err := c.tabs(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	if _, ok := tabs[ConfigTab]; !ok {
		log.WithField("spreadsheet", spreadsheetID).Debug("no config tab, using defaults")
		return config.Default(), nil
	}

	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, a1(ConfigTab, "A:B")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s tab: %w", ConfigTab, err)
	}
	return config.FromParameters(parameters(resp.Values))
}

// records converts cell values to strings.
func records(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		rec := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rec[j] = fmt.Sprint(cell)
			}
		}
		out[i] = rec
	}
	return out
}

// parameters reads two-column rows, skipping a Parameter/Value header.
func parameters(values [][]interface{}) map[string]string {
	kv := make(map[string]string)
	for _, rec := range records(values) {
		if len(rec) < 2 {
			continue
		}
		name := strings.TrimSpace(rec[0])
		if name == "" || strings.EqualFold(name, "parameter") {
			continue
		}
		kv[name] = rec[1]
	}
	return kv
}
