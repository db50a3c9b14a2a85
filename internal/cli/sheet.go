package cli

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/payout/sheets"
)

func newSheetCmd(rc *RootConfig) *cobra.Command {
	var (
		flags  evalFlags
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sheet <spreadsheet-id-or-url>",
		Short: "Evaluate the Trades tab of a Google spreadsheet",
		Long: `Read the Trades tab (and the optional Config tab) of a spreadsheet,
evaluate it and write the decision to a Results tab.

Credentials come from ` + sheets.KeyEnv + `, which may be set in .env.

Example:
  payout sheet 1AbC-xyz --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := sheets.SpreadsheetID(args[0])

			opts, err := flags.options()
			if err != nil {
				return err
			}

			client, err := sheets.NewClientFromEnv(ctx)
			if err != nil {
				return err
			}

			cfg, err := client.FetchConfig(ctx, id)
			if err != nil {
				return err
			}
			if err := flags.override(cmd, cfg); err != nil {
				return err
			}

			trades, err := client.FetchTrades(ctx, id, opts)
			if err != nil {
				return err
			}

			d, err := evaluate(ctx, cfg, trades)
			if err != nil {
				return err
			}

			if !dryRun {
				if err := client.WriteResults(ctx, id, d, trades); err != nil {
					return err
				}
			}
			return finish(cmd, rc, &flags, d, trades)
		},
	}

	flags.register(cmd, "text")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate without writing the Results tab")
	return cmd
}
