// Package donchian annotates bar series with channel-breakout signals.
// A break above the highest high of the preceding entry window opens a
// long (and closes a short); a break below the lowest low of the
// preceding exit window does the opposite. The lower channel doubles as
// the stop-loss level for longs.
package donchian

import (
	"github.com/shopspring/decimal"

	"backsim/types"
)

type Strategy struct {
	entryWindow int
	exitWindow  int
}

func New(entryWindow, exitWindow int) Strategy {
	return Strategy{entryWindow: entryWindow, exitWindow: exitWindow}
}

// Annotate converts a date-sorted bar series into signal-carrying rows.
// Bars inside the warmup window carry no signals. The strategy tracks
// its own side so it never emits an entry while the previous one on the
// same side is still open.
func (s Strategy) Annotate(bars []types.Bar) []types.SignalBar {
	out := make([]types.SignalBar, len(bars))
	for i, b := range bars {
		out[i] = types.SignalBarFromBar(b)
	}

	warmup := max(s.entryWindow, s.exitWindow)
	var inLong, inShort bool
	for i := warmup; i < len(bars); i++ {
		entryHigh, _ := channel(bars[i-s.entryWindow : i])
		_, exitLow := channel(bars[i-s.exitWindow : i])

		if bars[i].High.GreaterThan(entryHigh) {
			out[i].ExitShort = inShort
			inShort = false
			if !inLong {
				out[i].EntryLong = true
				inLong = true
			}
		}
		if bars[i].Low.LessThan(exitLow) {
			out[i].ExitLong = inLong
			inLong = false
			if !inShort {
				out[i].EntryShort = true
				inShort = true
			}
		}
		out[i].StopLoss = exitLow
		out[i].HasStopLoss = true
	}
	return out
}

// channel returns the highest high and lowest low over the given bars.
func channel(bars []types.Bar) (decimal.Decimal, decimal.Decimal) {
	if len(bars) == 0 {
		return decimal.Zero, decimal.Zero
	}
	highest := bars[0].High
	lowest := bars[0].Low
	for _, b := range bars[1:] {
		if b.High.GreaterThan(highest) {
			highest = b.High
		}
		if b.Low.LessThan(lowest) {
			lowest = b.Low
		}
	}
	return highest, lowest
}
