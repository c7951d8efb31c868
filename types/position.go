package types

import (
	"github.com/shopspring/decimal"
)

// Position is the currently held stake in one symbol. Shares is signed:
// positive for longs, negative for shorts. TradeID links to the open trade
// that created the position.
type Position struct {
	Symbol  string
	Shares  decimal.Decimal
	TradeID string
}
