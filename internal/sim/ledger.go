package sim

import (
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

// tradeLedger owns every trade of a run, open and closed, in entry order.
type tradeLedger struct {
	order []string
	byID  map[string]*types.Trade
}

func newTradeLedger() *tradeLedger {
	return &tradeLedger{byID: make(map[string]*types.Trade)}
}

func (l *tradeLedger) open(id, symbol string, typ types.TradeType, buyDate time.Time, gross, withFee decimal.Decimal) {
	l.byID[id] = &types.Trade{
		ID:                id,
		Symbol:            symbol,
		Type:              typ,
		BuyDate:           buyDate,
		EntryValue:        gross,
		EntryValueWithFee: withFee,
	}
	l.order = append(l.order, id)
}

func (l *tradeLedger) get(id string) *types.Trade {
	return l.byID[id]
}

// finalize closes a trade. The trade is immutable afterwards.
func (l *tradeLedger) finalize(id string, sellDate time.Time, gross, withFee, profit decimal.Decimal) {
	t := l.byID[id]
	t.SellDate = sellDate
	t.ExitValue = gross
	t.ExitValueWithFee = withFee
	t.Profit = profit.Round(2)
	t.Closed = true
}

// all returns the trades in entry order, copied out of the ledger.
func (l *tradeLedger) all() []types.Trade {
	out := make([]types.Trade, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.byID[id])
	}
	return out
}
