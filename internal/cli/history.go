package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/journal"
)

const defaultJournal = "./payout.sqlite"

func newHistoryCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the decision journal",
		Long: `Query decisions recorded with --journal.

Subcommands:
  list  - List recorded decisions, newest first
  show  - Print one recorded decision

Examples:
  payout history list --journal payout.sqlite --account ACC-1
  payout history show 01HZ3R6V4T0000000000000000 --format org`,
	}
	cmd.AddCommand(newHistoryListCmd(rc), newHistoryShowCmd(rc))
	return cmd
}

func journalPath(rc *RootConfig) string {
	if rc.Journal == "" {
		return defaultJournal
	}
	return rc.Journal
}

func newHistoryListCmd(rc *RootConfig) *cobra.Command {
	var (
		account string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := journalPath(rc)

			var (
				entries []journal.Entry
				err     error
			)
			if strings.EqualFold(filepath.Ext(path), ".csv") {
				entries, err = listCSV(path, account, limit)
			} else {
				var j *journal.SQLite
				if j, err = journal.NewSQLite(path); err != nil {
					return err
				}
				defer j.Close()
				entries, err = j.ListDecisions(cmd.Context(), account, limit)
			}
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Run", "Evaluated", "Account", "Recommendation", "Trades", "Capped profit"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, e := range entries {
				table.Append([]string{
					e.RunID,
					e.EvaluatedAt.UTC().Format(time.DateTime),
					e.AccountID,
					e.Recommendation,
					strconv.Itoa(e.TotalTrades),
					e.CappedProfit,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "only this account")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows, 0 for all")
	return cmd
}

// listCSV mirrors ListDecisions for a CSV journal.
func listCSV(path, account string, limit int) ([]journal.Entry, error) {
	all, err := journal.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	var out []journal.Entry
	for i := len(all) - 1; i >= 0; i-- {
		if account != "" && all[i].AccountID != account {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func newHistoryShowCmd(rc *RootConfig) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a recorded decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := journalPath(rc)
			if strings.EqualFold(filepath.Ext(path), ".csv") {
				return fmt.Errorf("%w: show needs a SQLite journal, %s keeps summaries only", config.ErrInvalid, path)
			}

			j, err := journal.NewSQLite(path)
			if err != nil {
				return err
			}
			defer j.Close()

			d, err := j.GetDecision(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if strings.EqualFold(format, "csv") {
				return fmt.Errorf("%w: recorded decisions carry no trades", config.ErrInvalid)
			}
			return render(cmd.OutOrStdout(), format, d, nil)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: json|text|org")
	return cmd
}
