package sim

import (
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

// selectCandidates scans today's symbols, in sorted order, for entry
// signals. entry_long wins over entry_short, so a symbol yields at most one
// candidate per day.
func (r *run) selectCandidates(day time.Time) []types.Candidate {
	var candidates []types.Candidate
	for _, symbol := range r.sim.panel.symbolsByDay[day] {
		bar, _ := r.sim.panel.bar(symbol, day)
		price := bar.Price(r.sim.cfg.PriceColumn)
		switch {
		case bar.EntryLong:
			candidates = append(candidates, types.Candidate{Symbol: symbol, Type: types.TradeLong, Price: price})
		case bar.EntryShort:
			candidates = append(candidates, types.Candidate{Symbol: symbol, Type: types.TradeShort, Price: price})
		}
	}
	if len(candidates) == 0 {
		r.sim.log.Debug("no candidates to buy")
	}
	return candidates
}

// buy opens a position and its trade from one sizing decision. Longs spend
// gross+fee. Shorts spend the fee only; the principal is credited to the
// short ledger instead of cash. Cash is rounded to 2 decimal places after
// every buy.
func (r *run) buy(decision types.BuyDecision, day time.Time) error {
	tradeID := types.TradeID(day, decision.Symbol, decision.Type)

	var entryValueWithFee decimal.Decimal
	switch decision.Type {
	case types.TradeLong:
		entryValueWithFee = decision.GrossValue.Add(decision.Fee)
		if err := r.book.open(decision.Symbol, decision.Shares, tradeID); err != nil {
			return err
		}
		r.cash = r.cash.Sub(entryValueWithFee)
	case types.TradeShort:
		entryValueWithFee = decision.GrossValue.Sub(decision.Fee)
		if err := r.book.open(decision.Symbol, decision.Shares.Neg(), tradeID); err != nil {
			return err
		}
		r.cash = r.cash.Sub(decision.Fee)
		r.shorts.credit(tradeID, decision.GrossValue)
	}
	r.cash = r.cash.Round(2)

	r.trades.open(tradeID, decision.Symbol, decision.Type, day, decision.GrossValue, entryValueWithFee)

	r.sim.log.Debug("bought",
		"symbol", decision.Symbol,
		"trade_id", tradeID,
		"type", decision.Type,
		"shares", decision.Shares,
		"price", decision.Price,
		"fee", decision.Fee,
		"cash", r.cash)
	return nil
}
