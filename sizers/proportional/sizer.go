// Package proportional sizes every entry as a fixed fraction of total
// capital, with a brokerage-style commission clamped between a minimum
// and maximum per order.
package proportional

import (
	"github.com/shopspring/decimal"

	"backsim/types"
)

type Sizer struct {
	positionPercent decimal.Decimal
	feeRate         decimal.Decimal
	minFee          decimal.Decimal
	maxFee          decimal.Decimal
}

func New(positionPercent, feeRate, minFee, maxFee decimal.Decimal) Sizer {
	return Sizer{
		positionPercent: positionPercent,
		feeRate:         feeRate,
		minFee:          minFee,
		maxFee:          maxFee,
	}
}

// DecideWhatToBuy allocates positionPercent of capital to each candidate
// in order, as many whole shares as that budget buys. Candidates are
// skipped when the budget buys no shares or the remaining cash cannot
// cover the outlay.
//
// Longs cost gross+fee up front. Shorts only cost the fee; the borrowed
// principal is settled at exit.
func (s Sizer) DecideWhatToBuy(availableCash decimal.Decimal, candidates []types.Candidate, capital decimal.Decimal) []types.BuyDecision {
	budget := capital.Mul(s.positionPercent)
	remaining := availableCash

	var decisions []types.BuyDecision
	for _, c := range candidates {
		if !c.Price.IsPositive() {
			continue
		}
		shares := budget.Div(c.Price).Floor()
		if !shares.IsPositive() {
			continue
		}
		gross := shares.Mul(c.Price)
		fee := s.CalculateFee(gross)

		outlay := fee
		if c.Type == types.TradeLong {
			outlay = gross.Add(fee)
		}
		if outlay.GreaterThan(remaining) {
			continue
		}
		remaining = remaining.Sub(outlay)

		decisions = append(decisions, types.BuyDecision{
			Symbol:     c.Symbol,
			Type:       c.Type,
			Price:      c.Price,
			Shares:     shares,
			GrossValue: gross,
			Fee:        fee,
		})
	}
	return decisions
}

// CalculateFee computes the commission for a trade at the configured
// rate, clamped to the per-order minimum and maximum.
func (s Sizer) CalculateFee(grossValue decimal.Decimal) decimal.Decimal {
	if grossValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	fee := grossValue.Mul(s.feeRate)
	if fee.LessThan(s.minFee) {
		fee = s.minFee
	}
	if fee.GreaterThan(s.maxFee) {
		fee = s.maxFee
	}
	return fee.Round(2)
}
