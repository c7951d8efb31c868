// Package config loads replay configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"backsim/types"
)

// Data configures where pricing bars come from.
type Data struct {
	// Dir is the flat-file pricing archive used by the run command.
	Dir string `yaml:"dir"`
	// Symbols limits the replay to these symbols. Empty means every
	// symbol in the archive.
	Symbols []string `yaml:"symbols"`
}

// Simulation configures the replay engine itself.
type Simulation struct {
	InitialCapital decimal.Decimal `yaml:"initial_capital"`
	PriceColumn    string          `yaml:"price_column"`
	StopLoss       bool            `yaml:"stop_loss"`
	DayLimit       int             `yaml:"day_limit"`
}

// Strategy configures the channel-breakout signal layer.
type Strategy struct {
	EntryWindow int `yaml:"entry_window"`
	ExitWindow  int `yaml:"exit_window"`
}

// Sizer configures the proportional position sizer.
type Sizer struct {
	// PositionPercent of total capital allocated per candidate.
	PositionPercent decimal.Decimal `yaml:"position_percent"`
	FeeRate         decimal.Decimal `yaml:"fee_rate"`
	MinFee          decimal.Decimal `yaml:"min_fee"`
	MaxFee          decimal.Decimal `yaml:"max_fee"`
}

// Output configures where results are written.
type Output struct {
	ResultsCSV string `yaml:"results_csv"`
	TradesCSV  string `yaml:"trades_csv"`
	JournalDB  string `yaml:"journal_db"`
}

type Config struct {
	Data       Data       `yaml:"data"`
	Simulation Simulation `yaml:"simulation"`
	Strategy   Strategy   `yaml:"strategy"`
	Sizer      Sizer      `yaml:"sizer"`
	Output     Output     `yaml:"output"`
}

// Default returns a config with sane values for a local replay.
func Default() Config {
	return Config{
		Data: Data{Dir: "data"},
		Simulation: Simulation{
			InitialCapital: decimal.NewFromInt(10000),
			PriceColumn:    string(types.PriceClose),
		},
		Strategy: Strategy{
			EntryWindow: 20,
			ExitWindow:  10,
		},
		Sizer: Sizer{
			PositionPercent: decimal.RequireFromString("0.1"),
			FeeRate:         decimal.RequireFromString("0.0039"),
			MinFee:          decimal.RequireFromString("3"),
			MaxFee:          decimal.RequireFromString("38"),
		},
		Output: Output{
			ResultsCSV: "results.csv",
			TradesCSV:  "trades.csv",
		},
	}
}

// LoadFromFile reads a YAML config, layered over Default.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must be set")
	}
	if !c.Simulation.InitialCapital.IsPositive() {
		return fmt.Errorf("simulation.initial_capital must be positive, got %s", c.Simulation.InitialCapital)
	}
	if _, ok := types.KnownPriceColumns[types.PriceColumn(c.Simulation.PriceColumn)]; !ok {
		return fmt.Errorf("simulation.price_column %q is not a known price column", c.Simulation.PriceColumn)
	}
	if c.Simulation.DayLimit < 0 {
		return fmt.Errorf("simulation.day_limit must not be negative")
	}
	if c.Strategy.EntryWindow <= 0 || c.Strategy.ExitWindow <= 0 {
		return fmt.Errorf("strategy windows must be positive")
	}
	if !c.Sizer.PositionPercent.IsPositive() || c.Sizer.PositionPercent.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("sizer.position_percent must be in (0, 1], got %s", c.Sizer.PositionPercent)
	}
	if c.Sizer.FeeRate.IsNegative() {
		return fmt.Errorf("sizer.fee_rate must not be negative")
	}
	if c.Sizer.MaxFee.LessThan(c.Sizer.MinFee) {
		return fmt.Errorf("sizer.max_fee must not be below sizer.min_fee")
	}
	return nil
}

// DatabaseURL resolves the Postgres connection string for the download
// command from the environment, loading .env first when present.
func DatabaseURL() (string, error) {
	godotenv.Load()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	return url, nil
}
