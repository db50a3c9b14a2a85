package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/ingest"
	"github.com/rustyeddy/payout/journal"
	"github.com/rustyeddy/payout/report"
	"github.com/rustyeddy/payout/trade"
)

// evalFlags are shared by check and sheet.
type evalFlags struct {
	accountSize float64
	format      string
	output      string

	// fill-ins for MT4/MT5 reports
	balance     float64
	accountType string
	accountID   string
}

func (f *evalFlags) register(cmd *cobra.Command, defaultFormat string) {
	def := ingest.DefaultOptions()
	cmd.Flags().Float64Var(&f.accountSize, "account-size", 0, "Override the configured account size")
	cmd.Flags().StringVarP(&f.format, "format", "f", defaultFormat, "Output format: json|text|csv|org")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Float64Var(&f.balance, "balance", def.Balance.InexactFloat64(), "Balance for reports without a balance column")
	cmd.Flags().StringVar(&f.accountType, "account-type", string(def.AccountType), "Account type for reports without an account_type column")
	cmd.Flags().StringVar(&f.accountID, "account-id", def.AccountID, "Account id for reports without an account_id column")
}

func (f *evalFlags) options() (ingest.Options, error) {
	at, err := trade.ParseAccountType(f.accountType)
	if err != nil {
		return ingest.Options{}, fmt.Errorf("%w: --account-type: %v", config.ErrInvalid, err)
	}
	return ingest.Options{
		Balance:     decimal.NewFromFloat(f.balance),
		AccountType: at,
		AccountID:   f.accountID,
	}, nil
}

// override applies command line settings on top of cfg.
func (f *evalFlags) override(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("account-size") {
		cfg.Account.Size = f.accountSize
	}
	return cfg.Validate()
}

func newCheckCmd(rc *RootConfig) *cobra.Command {
	var (
		flags      evalFlags
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "check <trades-file>",
		Short: "Evaluate a trade history export",
		Long: `Evaluate a canonical CSV or MT4/MT5 position report against the payout
rules and print the decision.

The exit status is 0 for APPROVE, 1 for REJECT and 2 for REVIEW.

Examples:
  payout check history.csv
  payout check report.txt --config payout.yaml --format text
  payout check history.csv --format csv --output annotated.csv --journal payout.sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := flags.override(cmd, cfg); err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}

			trades, err := ingest.ReadFile(args[0], opts)
			if err != nil {
				return err
			}

			d, err := evaluate(cmd.Context(), cfg, trades)
			if err != nil {
				return err
			}
			return finish(cmd, rc, &flags, d, trades)
		},
	}

	flags.register(cmd, "json")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Rule configuration: YAML, JSON or Parameter,Value CSV")
	return cmd
}

// loadConfig reads path by extension; an empty path means defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return config.LoadParameterCSV(path)
	}
	return config.LoadFromFile(path)
}

func evaluate(ctx context.Context, cfg *config.Config, trades []trade.Trade) (*decision.Decision, error) {
	e, err := decision.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, trades)
}

// finish renders d, records it and converts the recommendation to an exit
// status.
func finish(cmd *cobra.Command, rc *RootConfig, f *evalFlags, d *decision.Decision, trades []trade.Trade) error {
	w := cmd.OutOrStdout()
	if f.output != "" {
		out, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
		w = out
	}

	if err := render(w, f.format, d, trades); err != nil {
		return err
	}

	if rc.Journal != "" {
		if err := record(cmd.Context(), rc.Journal, d); err != nil {
			return err
		}
	}

	switch d.Recommendation {
	case decision.Reject:
		return &ExitCodeError{Code: ExitReject}
	case decision.Review:
		return &ExitCodeError{Code: ExitReview}
	default:
		return nil
	}
}

func render(w io.Writer, format string, d *decision.Decision, trades []trade.Trade) error {
	switch strings.ToLower(format) {
	case "json":
		return report.WriteJSON(w, d, true)
	case "text":
		return report.Text(w, d, trades)
	case "csv":
		if len(trades) == 0 {
			return fmt.Errorf("%w: csv output needs the evaluated trades", config.ErrInvalid)
		}
		return report.AnnotatedCSV(w, trades, d)
	case "org":
		_, err := io.WriteString(w, report.Org(d))
		return err
	default:
		return fmt.Errorf("%w: unknown format %q", config.ErrInvalid, format)
	}
}

// openJournal picks the journal backend by file extension.
func openJournal(path string) (journal.Journal, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return journal.NewCSV(path)
	}
	return journal.NewSQLite(path)
}

func record(ctx context.Context, path string, d *decision.Decision) error {
	j, err := openJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.RecordDecision(ctx, d); err != nil {
		return err
	}
	log.WithFields(log.Fields{"journal": path, "run_id": d.RunID}).Debug("decision recorded")
	return nil
}
