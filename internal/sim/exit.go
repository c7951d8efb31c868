package sim

import (
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

// processExits walks the held symbols in sorted order and closes every
// position whose exit condition fires today. Priority per symbol: exit_long,
// then exit_short, then stop-loss (when enabled); first match wins. Held
// symbols without data today are skipped.
func (r *run) processExits(day time.Time) {
	held := r.book.held()
	if len(held) == 0 {
		r.sim.log.Debug("no shares owned, nothing to sell")
		return
	}

	for _, symbol := range held {
		bar, ok := r.sim.panel.bar(symbol, day)
		if !ok {
			continue
		}
		price := bar.Price(r.sim.cfg.PriceColumn)

		switch {
		case bar.ExitLong:
			r.sell(symbol, price, day, types.TradeLong)
		case bar.ExitShort:
			r.sell(symbol, price, day, types.TradeShort)
		case r.sim.cfg.StopLoss && bar.HasStopLoss:
			pos, _ := r.book.get(symbol)
			trade := r.trades.get(pos.TradeID)
			if trade.Type == types.TradeLong && price.LessThanOrEqual(bar.StopLoss) {
				r.sim.log.Debug("long stop loss triggered", "symbol", symbol)
				r.sell(symbol, price, day, types.TradeLong)
			} else if trade.Type == types.TradeShort && price.GreaterThanOrEqual(bar.StopLoss) {
				r.sim.log.Debug("short stop loss triggered", "symbol", symbol)
				r.sell(symbol, price, day, types.TradeShort)
			}
		}
	}
}

// sell closes the position in symbol at today's price and finalizes its
// trade. Long exits credit proceeds minus fee. Short exits restore the
// held-aside principal first, then pay the buy-back cost plus fee.
func (r *run) sell(symbol string, price decimal.Decimal, day time.Time, exitType types.TradeType) {
	pos, _ := r.book.get(symbol)
	trade := r.trades.get(pos.TradeID)

	grossValue := pos.Shares.Abs().Mul(price)
	fee := r.sim.sizer.CalculateFee(grossValue)

	var sellValueWithFee, profit decimal.Decimal
	switch exitType {
	case types.TradeLong:
		sellValueWithFee = grossValue.Sub(fee)
		profit = sellValueWithFee.Sub(trade.EntryValueWithFee)
		r.cash = r.cash.Add(sellValueWithFee)
	case types.TradeShort:
		sellValueWithFee = grossValue.Add(fee)
		profit = trade.EntryValueWithFee.Sub(sellValueWithFee)
		r.cash = r.cash.Add(r.shorts.release(pos.TradeID))
		r.cash = r.cash.Sub(sellValueWithFee)
	}

	r.trades.finalize(pos.TradeID, day, grossValue, sellValueWithFee, profit)
	r.book.remove(symbol)

	r.sim.log.Debug("sold",
		"symbol", symbol,
		"trade_id", pos.TradeID,
		"shares", pos.Shares,
		"price", price,
		"fee", fee,
		"cash", r.cash)
}
