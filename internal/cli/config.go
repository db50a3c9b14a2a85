package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/payout/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate rule configuration files",
		Long: `Manage rule configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  payout config init --output payout.yaml
  payout config validate --file payout.yaml`,
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(w, "\nEdit the file and run with:")
			fmt.Fprintf(w, "  payout check trades.csv --config %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "payout.yaml", "output config file path")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			types := make([]string, len(cfg.Red.AccountTypes))
			for i, t := range cfg.Red.AccountTypes {
				types[i] = string(t)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(w, "  Account: $%.2f, payout cap %.1f%%\n", cfg.Account.Size, cfg.Account.CapPct*100)
			fmt.Fprintf(w, "  Blue:    %ds window, lots %.2fx-%.2fx of group average\n",
				cfg.Blue.TimeWindow, cfg.Blue.LotLowMult, cfg.Blue.LotHighMult)
			fmt.Fprintf(w, "  Red:     %.0f%% of capped profit per day (%s)\n",
				cfg.Red.ProfitThreshold*100, strings.Join(types, ", "))
			fmt.Fprintf(w, "  Orange:  warn at %d, breach at %d simultaneous\n",
				cfg.Orange.MinSimultaneous, cfg.Orange.BreachThreshold)
			fmt.Fprintf(w, "  Yellow:  multiplier %.2f (enabled: %t)\n", cfg.Yellow.LotMultiplier, cfg.Yellow.UseMultiplier)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
