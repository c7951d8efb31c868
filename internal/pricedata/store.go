// Package pricedata reads and writes per-symbol pricing files on disk.
// Each symbol lives in its own CSV named <symbol>_pricing.csv so a data
// directory doubles as a browsable archive.
package pricedata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

const (
	fileSuffix = "_pricing.csv"
	dateLayout = "2006-01-02"
)

var ErrNoPricingFile = errors.New("no pricing file for symbol")

var header = []string{"date", "open", "high", "low", "close", "volume"}

// Store holds pricing CSVs under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) Store {
	return Store{dir: dir}
}

// Symbols lists every symbol that has a pricing file in the store.
func (s Store) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), fileSuffix))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Load reads all bars for a symbol, sorted by date. Zero prices are
// replaced with the previous day's value so downstream consumers never
// see a session that trades at zero. Leading zeros have no previous
// value and are kept as-is.
func (s Store) Load(symbol string) ([]types.Bar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoPricingFile, symbol)
		}
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read pricing file for %s: %w", symbol, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPricingFile, symbol)
	}

	bars := make([]types.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		bar, err := parseBar(symbol, rec)
		if err != nil {
			return nil, fmt.Errorf("pricing file for %s, line %d: %w", symbol, i+2, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	forwardFill(bars)
	return bars, nil
}

// Write replaces the symbol's pricing file with the given bars.
func (s Store) Write(symbol string, bars []types.Bar) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(s.path(symbol))
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Write(header)
	for _, b := range bars {
		cw.Write([]string{
			b.Date.Format(dateLayout),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

func (s Store) path(symbol string) string {
	return filepath.Join(s.dir, symbol+fileSuffix)
}

func parseBar(symbol string, rec []string) (types.Bar, error) {
	if len(rec) != len(header) {
		return types.Bar{}, fmt.Errorf("expected %d columns, got %d", len(header), len(rec))
	}
	date, err := time.Parse(dateLayout, rec[0])
	if err != nil {
		return types.Bar{}, err
	}
	fields := make([]decimal.Decimal, 5)
	for i, raw := range rec[1:] {
		fields[i], err = decimal.NewFromString(raw)
		if err != nil {
			return types.Bar{}, fmt.Errorf("column %s: %w", header[i+1], err)
		}
	}
	return types.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

// forwardFill patches zero prices in place with the previous bar's value.
func forwardFill(bars []types.Bar) {
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1]
		if bars[i].Open.IsZero() {
			bars[i].Open = prev.Open
		}
		if bars[i].High.IsZero() {
			bars[i].High = prev.High
		}
		if bars[i].Low.IsZero() {
			bars[i].Low = prev.Low
		}
		if bars[i].Close.IsZero() {
			bars[i].Close = prev.Close
		}
	}
}
