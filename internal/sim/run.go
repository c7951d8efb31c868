package sim

import (
	"fmt"
	"time"

	"backsim/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// run is the mutable state of a single Run invocation.
type run struct {
	sim *Simulator

	cash      decimal.Decimal
	book      *positionBook
	trades    *tradeLedger
	shorts    *shortLedger
	snapshots []types.DaySnapshot

	// lastPrices remembers the most recent valuation price per held symbol,
	// used when a held symbol has no data for the current day.
	lastPrices map[string]backupPrice
}

type backupPrice struct {
	price decimal.Decimal
	day   time.Time
}

func (s *Simulator) newRun() *run {
	return &run{
		sim:        s,
		cash:       s.cfg.InitialCapital,
		book:       newPositionBook(),
		trades:     newTradeLedger(),
		shorts:     newShortLedger(),
		lastPrices: make(map[string]backupPrice),
	}
}

// Run replays the day sequence and returns the valuation table and the trade
// ledger. A positive dayLimit truncates the replay to the first dayLimit
// trading days. State is reinitialized on entry, so repeated calls are
// independent.
//
// Run fails with ErrBankrupt when cash is negative after any day's exit
// phase, and with ErrDuplicatePosition when the sizer buys into a held
// symbol. Both abort immediately: no snapshot is recorded for the failing
// day or any later day.
func (s *Simulator) Run(dayLimit int) (*Result, error) {
	r := s.newRun()
	days := s.panel.tradingDays(dayLimit)

	s.log.Debug("starting replay",
		"initial_capital", s.cfg.InitialCapital,
		"symbols", s.panel.symbols(),
		"days", len(days))

	var bar *progressbar.ProgressBar
	if s.cfg.ShowProgress {
		bar = initProgressBar(len(days))
	}

	for _, day := range days {
		s.log.Debug("processing session", "day", day.Format(dayLayout))

		r.processExits(day)
		if r.cash.IsNegative() {
			return nil, fmt.Errorf("cash after exits on %s is %s: %w",
				day.Format(dayLayout), r.cash, ErrBankrupt)
		}

		candidates := r.selectCandidates(day)
		capital := r.cash.Add(r.accountValue(day)).Add(r.shorts.total())
		decisions := s.sizer.DecideWhatToBuy(r.cash, candidates, capital)
		for _, decision := range decisions {
			if err := r.buy(decision, day); err != nil {
				return nil, err
			}
		}

		r.summarizeDay(day)
		if bar != nil {
			bar.Add(1)
		}
	}

	return &Result{Days: r.snapshots, Trades: r.trades.all()}, nil
}

func initProgressBar(days int) *progressbar.ProgressBar {
	return progressbar.NewOptions(days,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying sessions..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
