package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalBar is one day of a symbol's price/signal series. The entry and exit
// flags come from the signal layer as 0/1 columns; a long/short-only strategy
// leaves the other direction false. StopLoss is only meaningful when
// HasStopLoss is set.
type SignalBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal

	EntryLong  bool
	ExitLong   bool
	EntryShort bool
	ExitShort  bool

	StopLoss    decimal.Decimal
	HasStopLoss bool
}

// Price returns the value of the given price column.
func (b SignalBar) Price(col PriceColumn) decimal.Decimal {
	switch col {
	case PriceOpen:
		return b.Open
	case PriceHigh:
		return b.High
	case PriceLow:
		return b.Low
	default:
		return b.Close
	}
}

// SignalBarFromBar copies the pricing fields of a raw bar into a SignalBar
// with no signals set. The signal layer fills in the flags afterwards.
func SignalBarFromBar(bar Bar) SignalBar {
	return SignalBar{
		Date:   bar.Date,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}
}
