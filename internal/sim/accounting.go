package sim

import (
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// accountValue marks every open position to market for the day. A held
// symbol with no data today is valued at its last known price instead of
// failing; that fallback is logged and the run continues.
func (r *run) accountValue(day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, symbol := range r.book.held() {
		pos, _ := r.book.get(symbol)

		var price decimal.Decimal
		if bar, ok := r.sim.panel.bar(symbol, day); ok {
			price = bar.Price(r.sim.cfg.PriceColumn)
		} else {
			backup := r.lastPrices[symbol]
			price = backup.price
			r.sim.log.Warn("no data for held symbol, using last known price",
				"symbol", symbol,
				"day", day.Format(dayLayout),
				"price_day", backup.day.Format(dayLayout))
		}

		total = total.Add(pos.Shares.Mul(price))
		r.lastPrices[symbol] = backupPrice{price: price, day: day}
	}
	return total
}

// summarizeDay records the end-of-day snapshot. Net account value is the
// marked position value plus cash plus any principal still held aside from
// open shorts.
func (r *run) summarizeDay(day time.Time) {
	accountValue := r.accountValue(day)
	nav := accountValue.Add(r.cash).Add(r.shorts.total())
	ror := nav.Sub(r.sim.cfg.InitialCapital).
		Div(r.sim.cfg.InitialCapital).
		Mul(hundred)

	r.snapshots = append(r.snapshots, types.DaySnapshot{
		Date:            day,
		AccountValue:    accountValue,
		NetAccountValue: nav,
		RateOfReturn:    ror,
	})

	r.sim.log.Debug("session summary",
		"day", day.Format(dayLayout),
		"cash", r.cash,
		"positions", r.book.len(),
		"net_account_value", nav,
		"rate_of_return", ror)
}
