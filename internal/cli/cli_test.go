package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/payout/config"
	"github.com/rustyeddy/payout/decision"
	"github.com/rustyeddy/payout/ingest"
	"github.com/rustyeddy/payout/journal"
	"github.com/rustyeddy/payout/report"
	"github.com/rustyeddy/payout/trade"
)

const header = "ticket,open_time,close_time,pair,direction,lot_size,profit,balance,account_type,account_id\n"

// history writes one trade per line; each is ticket, open, close, profit.
func history(t *testing.T, rows ...[4]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(header)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%s,EURUSD,BUY,1.00,%s,100000,1-step-algo,ACC-1\n", r[0], r[1], r[2], r[3])
	}
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func clean(t *testing.T) string {
	return history(t,
		[4]string{"1", "2024-05-06 09:00:00", "2024-05-06 10:00:00", "100"},
		[4]string{"2", "2024-05-07 09:00:00", "2024-05-07 10:00:00", "100"},
		[4]string{"3", "2024-05-08 09:00:00", "2024-05-08 10:00:00", "100"},
	)
}

func concentrated(t *testing.T) string {
	return history(t,
		[4]string{"1", "2024-05-06 09:00:00", "2024-05-06 10:00:00", "450"},
		[4]string{"2", "2024-05-07 09:00:00", "2024-05-07 10:00:00", "200"},
		[4]string{"3", "2024-05-08 09:00:00", "2024-05-08 10:00:00", "200"},
		[4]string{"4", "2024-05-09 09:00:00", "2024-05-09 10:00:00", "150"},
	)
}

func stacked(t *testing.T) string {
	return history(t,
		[4]string{"G1", "2024-05-06 09:00:00", "2024-05-06 10:00:00", "0"},
		[4]string{"G2", "2024-05-06 09:00:10", "2024-05-06 10:00:00", "0"},
		[4]string{"G3", "2024-05-06 09:00:20", "2024-05-06 10:00:00", "0"},
	)
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var out, errb bytes.Buffer
	code := run(context.Background(), append([]string{"--log-level", "error"}, args...), &out, &errb)
	return code, out.String(), errb.String()
}

func TestCheckExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file func(t *testing.T) string
		code int
		rec  decision.Recommendation
	}{
		{"approve", clean, ExitApprove, decision.Approve},
		{"reject", concentrated, ExitReject, decision.Reject},
		{"review", stacked, ExitReview, decision.Review},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, out, _ := runCLI(t, "check", tt.file(t))
			assert.Equal(t, tt.code, code)

			d, err := report.ParseJSON([]byte(out))
			require.NoError(t, err)
			assert.Equal(t, tt.rec, d.Recommendation)
			assert.NotEmpty(t, d.RunID)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badCols := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(badCols, []byte("ticket,pair\n1,EURUSD\n"), 0o644))
	badCfg := filepath.Join(dir, "params.csv")
	require.NoError(t, os.WriteFile(badCfg, []byte("Parameter,Value\naccount_size,-5\n"), 0o644))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"check", filepath.Join(dir, "nope.csv")}, ExitNotFound},
		{"missing columns", []string{"check", badCols}, ExitInvalid},
		{"invalid config", []string{"check", clean(t), "--config", badCfg}, ExitInvalid},
		{"missing config", []string{"check", clean(t), "--config", filepath.Join(dir, "nope.yaml")}, ExitNotFound},
		{"bad account size", []string{"check", clean(t), "--account-size", "0"}, ExitInvalid},
		{"bad account type", []string{"check", clean(t), "--account-type", "demo"}, ExitInvalid},
		{"unknown format", []string{"check", clean(t), "--format", "xml"}, ExitInvalid},
		{"bad log level", []string{"--log-level", "loud", "version"}, ExitInvalid},
		{"no args", []string{"check"}, ExitUnexpected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "error:")
		})
	}
}

func TestCheckFormats(t *testing.T) {
	t.Parallel()

	path := stacked(t)

	code, out, _ := runCLI(t, "check", path, "--format", "text")
	assert.Equal(t, ExitReview, code)
	assert.Contains(t, out, "Recommendation: REVIEW")

	code, out, _ = runCLI(t, "check", path, "--format", "org")
	assert.Equal(t, ExitReview, code)
	assert.Contains(t, out, "** Payout review: ACC-1 REVIEW")

	annotated := filepath.Join(t.TempDir(), "annotated.csv")
	code, out, _ = runCLI(t, "check", path, "--format", "csv", "--output", annotated)
	assert.Equal(t, ExitReview, code)
	assert.Empty(t, out)

	b, err := os.ReadFile(annotated)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], "violation_type,violation_details,rule_status"))
	assert.True(t, strings.HasSuffix(lines[1], ",WARNING"))
}

func TestCheckAccountSizeOverride(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "check", clean(t), "--account-size", "50000")
	assert.Equal(t, ExitApprove, code)

	d, err := report.ParseJSON([]byte(out))
	require.NoError(t, err)
	assert.True(t, d.Profit.PayoutCap.Equal(decimal.NewFromInt(3000)), d.Profit.PayoutCap.String())
	assert.False(t, d.Profit.CapApplied)
}

func TestCheckJournalAndHistory(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "payout.sqlite")

	code, out, _ := runCLI(t, "--journal", db, "check", stacked(t))
	require.Equal(t, ExitReview, code)
	first, err := report.ParseJSON([]byte(out))
	require.NoError(t, err)

	code, _, _ = runCLI(t, "--journal", db, "check", clean(t))
	require.Equal(t, ExitApprove, code)

	code, out, _ = runCLI(t, "--journal", db, "history", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, first.RunID)
	assert.Contains(t, out, "REVIEW")
	assert.Contains(t, out, "APPROVE")

	code, out, _ = runCLI(t, "--journal", db, "history", "show", first.RunID, "--format", "json")
	assert.Equal(t, 0, code)
	got, err := report.ParseJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, first.Reason, got.Reason)
	assert.Equal(t, first.Rules.Orange.ViolationCount, got.Rules.Orange.ViolationCount)

	code, _, _ = runCLI(t, "--journal", db, "history", "show", "01HZMISSING000000000000000")
	assert.Equal(t, ExitNotFound, code)
}

func TestCSVJournalHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "decisions.csv")

	code, _, _ := runCLI(t, "--journal", path, "check", clean(t))
	require.Equal(t, ExitApprove, code)
	code, _, _ = runCLI(t, "--journal", path, "check", concentrated(t))
	require.Equal(t, ExitReject, code)

	code, out, _ := runCLI(t, "--journal", path, "history", "list", "--limit", "1")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "REJECT")
	assert.NotContains(t, out, "APPROVE")

	code, _, _ = runCLI(t, "--journal", path, "history", "show", "anything")
	assert.Equal(t, ExitInvalid, code)
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payout.yaml")

	code, out, _ := runCLI(t, "config", "init", "--output", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, path)

	code, out, _ = runCLI(t, "config", "validate", "--file", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "warn at 3, breach at 5")

	code, _, _ = runCLI(t, "check", clean(t), "--config", path)
	assert.Equal(t, ExitApprove, code)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "payout version "+version+"\n", out)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitApprove},
		{"review", &ExitCodeError{Code: ExitReview}, ExitReview},
		{"validation", fmt.Errorf("load: %w", &trade.ValidationError{Ticket: "1", Field: "pair", Reason: "empty"}), ExitInvalid},
		{"ingest", fmt.Errorf("%w: bad", ingest.ErrValidation), ExitInvalid},
		{"config", fmt.Errorf("%w: bad", config.ErrInvalid), ExitInvalid},
		{"not exist", fmt.Errorf("open: %w", fs.ErrNotExist), ExitNotFound},
		{"no run", fmt.Errorf("run: %w", journal.ErrNotFound), ExitNotFound},
		{"wrapped code", &ExitCodeError{Code: ExitReject, Err: errors.New("boom")}, ExitReject},
		{"other", errors.New("boom"), ExitUnexpected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
