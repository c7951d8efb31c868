package repository

import (
	"context"
	"time"

	"backsim/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectBars = `
SELECT symbol, date, open, high, low, close, volume
FROM pricing_bars
WHERE symbol = $1 AND date >= $2 AND date <= $3
ORDER BY date
`

const selectSymbols = `
SELECT DISTINCT symbol FROM pricing_bars ORDER BY symbol
`

const insertBar = `
INSERT INTO pricing_bars (symbol, date, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (symbol, date) DO UPDATE SET
  open = EXCLUDED.open,
  high = EXCLUDED.high,
  low = EXCLUDED.low,
  close = EXCLUDED.close,
  volume = EXCLUDED.volume
`

type pgxBars struct {
	pool *pgxpool.Pool
}

func (q pgxBars) SelectBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	rows, err := q.pool.Query(ctx, selectBars, symbol, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var b types.Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (q pgxBars) SelectSymbols(ctx context.Context) ([]string, error) {
	rows, err := q.pool.Query(ctx, selectSymbols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

func (q pgxBars) InsertBars(ctx context.Context, bars []types.Bar) error {
	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(insertBar, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return q.pool.SendBatch(ctx, batch).Close()
}
