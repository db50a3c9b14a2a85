// Package sheets reads trade histories and configuration from a Google
// spreadsheet and writes decisions back to it.
package sheets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// KeyEnv holds the base64 encoded service account key.
const KeyEnv = "GOOGLE_SECURITY_KEY_JSON_BASE64"

const scope = "https://www.googleapis.com/auth/spreadsheets"

// Tab names.
const (
	TradesTab        = "Trades"
	ConfigTab        = "Config"
	ResultsTab       = "Results"
	ColoredTradesTab = "Colored Trades"
)

// Client wraps a Sheets service.
type Client struct {
	srv *sheets.Service
}

// New wraps an existing service.
func New(srv *sheets.Service) *Client {
	return &Client{srv: srv}
}

// NewClient authenticates with a base64 encoded service account key.
func NewClient(ctx context.Context, keyBase64 string) (*Client, error) {
	credBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyBase64))
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode service account key: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credBytes, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from json: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(srv), nil
}

// NewClientFromEnv loads .env when present and authenticates with KeyEnv.
func NewClientFromEnv(ctx context.Context) (*Client, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	key := os.Getenv(KeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s not set", KeyEnv)
	}
	log.Debug("sheets credentials loaded from environment")
	return NewClient(ctx, key)
}

// SpreadsheetID accepts a bare id or a full spreadsheet URL.
func SpreadsheetID(ref string) string {
	ref = strings.TrimSpace(ref)
	const marker = "/spreadsheets/d/"
	i := strings.Index(ref, marker)
	if i < 0 {
		return ref
	}
	id := ref[i+len(marker):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	return id
}

// tabs maps tab titles to sheet ids.
func (c *Client) tabs(ctx context.Context, spreadsheetID string) (map[string]int64, error) {
	ss, err := c.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", spreadsheetID, err)
	}
	out := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			out[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return out, nil
}

// a1 quotes a tab name for A1 notation.
func a1(tab, cells string) string {
	if strings.ContainsAny(tab, " '!") {
		tab = "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}
	return tab + "!" + cells
}
