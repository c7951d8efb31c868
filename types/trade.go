package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TradeType string

const (
	TradeLong  TradeType = "long"
	TradeShort TradeType = "short"
)

// Trade is one entry/exit round trip. It is created open at entry and
// finalized exactly once at exit; the exit fields are zero while the trade is
// open. EntryValueWithFee is gross+fee for longs and gross-fee for shorts,
// ExitValueWithFee the other way around.
type Trade struct {
	ID     string
	Symbol string
	Type   TradeType

	BuyDate  time.Time
	SellDate time.Time

	EntryValue        decimal.Decimal
	EntryValueWithFee decimal.Decimal
	ExitValue         decimal.Decimal
	ExitValueWithFee  decimal.Decimal
	Profit            decimal.Decimal

	Closed bool
}

// TradeID derives the deterministic trade id for an entry. Two runs over the
// same inputs produce the same ids.
func TradeID(day time.Time, symbol string, typ TradeType) string {
	return fmt.Sprintf("%s_%s_%s", day.Format("2006-01-02"), symbol, typ)
}
