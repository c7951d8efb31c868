package types

import (
	"github.com/shopspring/decimal"
)

// Candidate is a symbol eligible for a new position today, pending the
// sizing decision.
type Candidate struct {
	Symbol string
	Type   TradeType
	Price  decimal.Decimal
}

// BuyDecision is one sized entry returned by a position sizer.
// GrossValue is price*shares before fees.
type BuyDecision struct {
	Symbol     string
	Type       TradeType
	Price      decimal.Decimal
	Shares     decimal.Decimal
	GrossValue decimal.Decimal
	Fee        decimal.Decimal
}
