package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one raw OHLCV record as persisted by the flat-file store or the
// bars table. Date is normalized to UTC midnight.
type Bar struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

type PriceColumn string

const (
	PriceOpen  PriceColumn = "open"
	PriceHigh  PriceColumn = "high"
	PriceLow   PriceColumn = "low"
	PriceClose PriceColumn = "close"
)

var KnownPriceColumns = map[PriceColumn]bool{
	PriceOpen:  true,
	PriceHigh:  true,
	PriceLow:   true,
	PriceClose: true,
}
