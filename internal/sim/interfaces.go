package sim

import (
	"backsim/types"

	"github.com/shopspring/decimal"
)

// PositionSizer decides which candidates to buy and how the fee schedule
// works. Implementations live outside the engine; the engine only executes
// what the sizer returns, in the order it returns it.
//
// DecideWhatToBuy receives the available cash and total capital by value and
// cannot mutate engine state. It must not return a decision for a symbol that
// already has an open position.
type PositionSizer interface {
	DecideWhatToBuy(availableCash decimal.Decimal, candidates []types.Candidate, capital decimal.Decimal) []types.BuyDecision
	CalculateFee(grossValue decimal.Decimal) decimal.Decimal
}
