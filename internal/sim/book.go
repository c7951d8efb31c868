package sim

import (
	"fmt"
	"sort"

	"backsim/types"

	"github.com/shopspring/decimal"
)

// positionBook owns the open positions. At most one position per symbol.
type positionBook struct {
	positions map[string]*types.Position
}

func newPositionBook() *positionBook {
	return &positionBook{positions: make(map[string]*types.Position)}
}

func (b *positionBook) open(symbol string, shares decimal.Decimal, tradeID string) error {
	if _, held := b.positions[symbol]; held {
		return fmt.Errorf("buying %s: %w", symbol, ErrDuplicatePosition)
	}
	b.positions[symbol] = &types.Position{Symbol: symbol, Shares: shares, TradeID: tradeID}
	return nil
}

func (b *positionBook) get(symbol string) (*types.Position, bool) {
	pos, ok := b.positions[symbol]
	return pos, ok
}

func (b *positionBook) remove(symbol string) {
	delete(b.positions, symbol)
}

// held returns the held symbols in sorted order so a run is deterministic.
func (b *positionBook) held() []string {
	out := make([]string, 0, len(b.positions))
	for symbol := range b.positions {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

func (b *positionBook) len() int {
	return len(b.positions)
}

// shortLedger holds the principal credited by each open short sale until the
// position is covered. An entry exists iff the short trade is open.
type shortLedger struct {
	byTrade map[string]decimal.Decimal
}

func newShortLedger() *shortLedger {
	return &shortLedger{byTrade: make(map[string]decimal.Decimal)}
}

func (l *shortLedger) credit(tradeID string, principal decimal.Decimal) {
	l.byTrade[tradeID] = principal
}

// release removes and returns the principal held for a trade.
func (l *shortLedger) release(tradeID string) decimal.Decimal {
	principal := l.byTrade[tradeID]
	delete(l.byTrade, tradeID)
	return principal
}

func (l *shortLedger) total() decimal.Decimal {
	sum := decimal.Zero
	for _, principal := range l.byTrade {
		sum = sum.Add(principal)
	}
	return sum
}
