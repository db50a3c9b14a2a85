package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rustyeddy/payout/trade"
)

// Parameter is one row of a Parameter,Value configuration sheet.
type Parameter struct {
	Name  string `csv:"Parameter"`
	Value string `csv:"Value"`
}

// setter applies one parameter to cfg.
type setter func(cfg *Config, v string) error

// params maps both flat rule names and the legacy sheet names onto fields.
var params = map[string]setter{
	"account_size":               floatParam(func(c *Config) *float64 { return &c.Account.Size }),
	"account_cap_pct":            floatParam(func(c *Config) *float64 { return &c.Account.CapPct }),
	"payout_cap_percentage":      floatParam(func(c *Config) *float64 { return &c.Account.CapPct }),
	"blue_time_window":           intParam(func(c *Config) *int { return &c.Blue.TimeWindow }),
	"blue_lot_low_mult":          floatParam(func(c *Config) *float64 { return &c.Blue.LotLowMult }),
	"blue_lot_high_mult":         floatParam(func(c *Config) *float64 { return &c.Blue.LotHighMult }),
	"red_profit_threshold":       floatParam(func(c *Config) *float64 { return &c.Red.ProfitThreshold }),
	"red_account_types":          accountTypesParam,
	"orange_min_simultaneous":    intParam(func(c *Config) *int { return &c.Orange.MinSimultaneous }),
	"orange_simultaneous_trades": intParam(func(c *Config) *int { return &c.Orange.MinSimultaneous }),
	"orange_breach_threshold":    intParam(func(c *Config) *int { return &c.Orange.BreachThreshold }),
	"yellow_lot_multiplier":      floatParam(func(c *Config) *float64 { return &c.Yellow.LotMultiplier }),
	"yellow_use_multiplier":      boolParam(func(c *Config) *bool { return &c.Yellow.UseMultiplier }),
	// superseded by the low/high multipliers
	"blue_lot_tolerance": func(*Config, string) error { return nil },
}

// FromParameters builds a validated Config from name/value pairs. Unknown
// names and empty values are ignored; anything else that fails to parse is
// an error.
func FromParameters(kv map[string]string) (*Config, error) {
	cfg := Default()
	for name, raw := range kv {
		key := strings.ToLower(strings.TrimSpace(name))
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		set, ok := params[key]
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadParameterCSV reads a Parameter,Value CSV.
func LoadParameterCSV(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameter file: %w", err)
	}
	defer f.Close()

	var rows []*Parameter
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}

	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Name] = r.Value
	}
	return FromParameters(kv)
}

func floatParam(field func(*Config) *float64) setter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func intParam(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		// sheets export whole numbers as "180.0"
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if f != float64(int(f)) {
			return fmt.Errorf("%s is not a whole number", v)
		}
		*field(c) = int(f)
		return nil
	}
}

func boolParam(field func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func accountTypesParam(c *Config, v string) error {
	var types []trade.AccountType
	for _, s := range strings.Split(v, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		at, err := trade.ParseAccountType(s)
		if err != nil {
			return err
		}
		types = append(types, at)
	}
	c.Red.AccountTypes = types
	return nil
}
