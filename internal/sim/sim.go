package sim

import (
	"errors"
	"log/slog"

	"backsim/types"

	"github.com/shopspring/decimal"
)

// Config carries the run configuration. Zero values are filled in by
// NewConfig; a nil Logger falls back to slog.Default.
type Config struct {
	// PriceColumn is the column used for fills and valuation.
	PriceColumn types.PriceColumn
	// InitialCapital is the cash balance every run starts from.
	InitialCapital decimal.Decimal
	// StopLoss enables stop-loss enforcement during the exit phase.
	StopLoss bool
	// ShowProgress renders a progress bar over the day loop.
	ShowProgress bool
	Logger       *slog.Logger
}

// NewConfig returns the default configuration: close prices, 10000 initial
// capital, stop-loss off.
func NewConfig() *Config {
	return &Config{
		PriceColumn:    types.PriceClose,
		InitialCapital: decimal.NewFromInt(10000),
	}
}

// Simulator replays a strategy's signals over historical data. It holds only
// immutable inputs; all mutable state is scoped to a single Run call, so a
// Simulator can be reused across runs.
type Simulator struct {
	panel *panel
	sizer PositionSizer
	cfg   Config
	log   *slog.Logger
}

// Result is the output of one run: the end-of-day valuation table in day
// order and every trade, open and closed, in entry order.
type Result struct {
	Days   []types.DaySnapshot
	Trades []types.Trade
}

// New builds a Simulator over the given per-symbol series. The series are
// treated as immutable and shared across runs.
func New(series map[string][]types.SignalBar, sizer PositionSizer, cfg *Config) (*Simulator, error) {
	if sizer == nil {
		return nil, errors.New("sim: position sizer is required")
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	if cfg.PriceColumn == "" {
		cfg.PriceColumn = types.PriceClose
	}
	if !types.KnownPriceColumns[cfg.PriceColumn] {
		return nil, errors.New("sim: unknown price column " + string(cfg.PriceColumn))
	}
	if !cfg.InitialCapital.IsPositive() {
		return nil, errors.New("sim: initial capital must be positive")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Simulator{
		panel: newPanel(series),
		sizer: sizer,
		cfg:   *cfg,
		log:   log,
	}, nil
}
