package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/payout/trade"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the thresholds for every compliance rule. A Config is
// immutable once validated; evaluators only read it.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Blue    BlueConfig    `json:"blue" yaml:"blue"`
	Red     RedConfig     `json:"red" yaml:"red"`
	Orange  OrangeConfig  `json:"orange" yaml:"orange"`
	Yellow  YellowConfig  `json:"yellow" yaml:"yellow"`
}

// AccountConfig sizes the funded account and its payout cap.
type AccountConfig struct {
	Size   float64 `json:"size" yaml:"size"`
	CapPct float64 `json:"cap_pct" yaml:"cap_pct"`
}

// BlueConfig contains lot consistency parameters
type BlueConfig struct {
	TimeWindow  int     `json:"time_window" yaml:"time_window"` // seconds
	LotLowMult  float64 `json:"lot_low_mult" yaml:"lot_low_mult"`
	LotHighMult float64 `json:"lot_high_mult" yaml:"lot_high_mult"`
}

// RedConfig contains profit concentration parameters
type RedConfig struct {
	ProfitThreshold float64             `json:"profit_threshold" yaml:"profit_threshold"`
	AccountTypes    []trade.AccountType `json:"account_types" yaml:"account_types"`
}

// OrangeConfig contains grid/stacking parameters
type OrangeConfig struct {
	MinSimultaneous int `json:"min_simultaneous" yaml:"min_simultaneous"`
	BreachThreshold int `json:"breach_threshold" yaml:"breach_threshold"`
}

// YellowConfig contains martingale parameters. LotMultiplier only applies
// when UseMultiplier is set; otherwise any lot increase is flagged.
type YellowConfig struct {
	LotMultiplier float64 `json:"lot_multiplier" yaml:"lot_multiplier"`
	UseMultiplier bool    `json:"use_multiplier" yaml:"use_multiplier"`
}

// Default returns a configuration with the standard firm thresholds.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Size:   100000,
			CapPct: 0.06,
		},
		Blue: BlueConfig{
			TimeWindow:  180,
			LotLowMult:  0.25,
			LotHighMult: 2.00,
		},
		Red: RedConfig{
			ProfitThreshold: 0.40,
			AccountTypes:    []trade.AccountType{trade.OneStepAlgo},
		},
		Orange: OrangeConfig{
			MinSimultaneous: 3,
			BreachThreshold: 5,
		},
		Yellow: YellowConfig{
			LotMultiplier: 1.5,
		},
	}
}

// PayoutCap is the largest profit the account can be paid out.
func (c *Config) PayoutCap() decimal.Decimal {
	return decimal.NewFromFloat(c.Account.Size).Mul(decimal.NewFromFloat(c.Account.CapPct))
}

// RedApplies reports whether the profit concentration rule covers at.
func (c *Config) RedApplies(at trade.AccountType) bool {
	for _, t := range c.Red.AccountTypes {
		if t == at {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Size <= 0 {
		return invalid("account.size must be positive")
	}
	if c.Account.CapPct <= 0 || c.Account.CapPct > 1 {
		return invalid("account.cap_pct must be in (0, 1]")
	}
	if c.Blue.TimeWindow <= 0 {
		return invalid("blue.time_window must be positive")
	}
	if c.Blue.LotLowMult <= 0 {
		return invalid("blue.lot_low_mult must be positive")
	}
	if c.Blue.LotHighMult <= c.Blue.LotLowMult {
		return invalid("blue.lot_high_mult must be greater than blue.lot_low_mult")
	}
	if c.Red.ProfitThreshold <= 0 || c.Red.ProfitThreshold >= 1 {
		return invalid("red.profit_threshold must be in (0, 1)")
	}
	if len(c.Red.AccountTypes) == 0 {
		return invalid("red.account_types must not be empty")
	}
	for _, at := range c.Red.AccountTypes {
		if !at.Valid() {
			return invalid(fmt.Sprintf("red.account_types: unknown account type %q", at))
		}
	}
	if c.Orange.MinSimultaneous < 2 {
		return invalid("orange.min_simultaneous must be >= 2")
	}
	if c.Orange.BreachThreshold < c.Orange.MinSimultaneous {
		return invalid("orange.breach_threshold must be >= orange.min_simultaneous")
	}
	if c.Yellow.LotMultiplier <= 1 {
		return invalid("yellow.lot_multiplier must be > 1")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// LoadFromFile overlays a YAML or JSON file on Default and validates the
// result. Keys absent from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("%w: parse %s (tried YAML and JSON): %v", ErrInvalid, path, jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
