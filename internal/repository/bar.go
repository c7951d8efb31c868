package repository

import (
	"context"
	"fmt"
	"time"

	"backsim/types"
)

// GetBars retrieves historical bars for a symbol between the given dates, inclusive.
func (db *Database) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	bars, err := db.bars.SelectBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("error getting bars for symbol %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBars, symbol)
	}
	return bars, nil
}

// ListSymbols returns every symbol the datasource has bars for.
func (db *Database) ListSymbols(ctx context.Context) ([]string, error) {
	symbols, err := db.bars.SelectSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing symbols: %w", err)
	}
	return symbols, nil
}

// SaveBars persists bars, overwriting rows that already exist for the same
// symbol and date.
func (db *Database) SaveBars(ctx context.Context, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if err := db.bars.InsertBars(ctx, bars); err != nil {
		return fmt.Errorf("error saving bars: %w", err)
	}
	return nil
}
