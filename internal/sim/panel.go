package sim

import (
	"sort"
	"time"

	"backsim/types"
)

// panel is the date-indexed view over all symbol series. It is built once at
// construction and never mutated by a run.
type panel struct {
	// bars[symbol][day] is that symbol's row for the day.
	bars map[string]map[time.Time]types.SignalBar
	// days is the sorted union of all dates across symbols.
	days []time.Time
	// symbolsByDay lists, sorted, which symbols have data on a day.
	symbolsByDay map[time.Time][]string
}

// normalizeDate collapses a timestamp to its UTC calendar day so that rows
// from different sources index the same session.
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPanel(series map[string][]types.SignalBar) *panel {
	p := &panel{
		bars:         make(map[string]map[time.Time]types.SignalBar, len(series)),
		symbolsByDay: make(map[time.Time][]string),
	}

	for symbol, rows := range series {
		byDay := make(map[time.Time]types.SignalBar, len(rows))
		for _, row := range rows {
			day := normalizeDate(row.Date)
			row.Date = day
			byDay[day] = row
		}
		p.bars[symbol] = byDay
	}

	// Union of days over all symbols, each day knowing its symbols.
	symbols := make([]string, 0, len(p.bars))
	for symbol := range p.bars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		for day := range p.bars[symbol] {
			if _, seen := p.symbolsByDay[day]; !seen {
				p.days = append(p.days, day)
			}
			p.symbolsByDay[day] = append(p.symbolsByDay[day], symbol)
		}
	}
	sort.Slice(p.days, func(i, j int) bool { return p.days[i].Before(p.days[j]) })

	return p
}

// bar returns the symbol's row for a day, if it has one.
func (p *panel) bar(symbol string, day time.Time) (types.SignalBar, bool) {
	row, ok := p.bars[symbol][day]
	return row, ok
}

func (p *panel) hasData(symbol string, day time.Time) bool {
	_, ok := p.bars[symbol][day]
	return ok
}

// tradingDays returns the day sequence, truncated to the first limit days
// when limit is positive.
func (p *panel) tradingDays(limit int) []time.Time {
	days := p.days
	if limit > 0 && limit < len(days) {
		days = days[:limit]
	}
	return days
}

func (p *panel) symbols() []string {
	out := make([]string, 0, len(p.bars))
	for symbol := range p.bars {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}
