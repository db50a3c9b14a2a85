// Package cli is the payout command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/ingest"
	"github.com/rustyeddy/payout/journal"
	"github.com/rustyeddy/payout/trade"
)

// Exit statuses.
const (
	ExitApprove    = 0
	ExitReject     = 1
	ExitReview     = 2
	ExitInvalid    = 3
	ExitNotFound   = 4
	ExitUnexpected = 5
)

// RootConfig holds the persistent flags.
type RootConfig struct {
	LogLevel  string
	LogFormat string
	Journal   string
}

// ExitCodeError carries an exit status out of a command. Err is nil when the
// command succeeded but the status is not zero.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitApprove
	}

	var ec *ExitCodeError
	if errors.As(err, &ec) && ec.Err == nil {
		return ec.Code
	}

	var ve *trade.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, config.ErrInvalid), errors.Is(err, ingest.ErrValidation):
		return ExitInvalid
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, journal.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &ec):
		return ec.Code
	default:
		return ExitUnexpected
	}
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "payout",
		Short:         "Payout compliance checks for funded trading accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default $LOG_LEVEL or warn)")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "text", "Log format: text|json")
	cmd.PersistentFlags().StringVar(&rc.Journal, "journal", "", "Decision journal: a .sqlite/.db file or a .csv file")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging(rc)
	}

	cmd.AddCommand(
		newCheckCmd(rc),
		newSheetCmd(rc),
		newConfigCmd(),
		newHistoryCmd(rc),
		newVersionCmd(),
	)

	return cmd
}

func setupLogging(rc *RootConfig) error {
	level := rc.LogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: log level: %v", config.ErrInvalid, err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(rc.LogFormat) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("%w: log format %q", config.ErrInvalid, rc.LogFormat)
	}
	return nil
}

// run executes the command tree with args and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := ExitCode(err)

	var ec *ExitCodeError
	if err != nil && !(errors.As(err, &ec) && ec.Err == nil) {
		fmt.Fprintln(stderr, "error:", err)
	}
	return code
}

// Execute runs the CLI against the process arguments.
func Execute() int {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}
