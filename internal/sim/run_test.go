package sim

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"backsim/types"

	"github.com/shopspring/decimal"
)

func TestRun_NoSignalsNoTrades(t *testing.T) {
	series := map[string][]types.SignalBar{
		"ALIOR": {testBar(1, 100), testBar(2, 101), testBar(3, 102)},
		"KGHM":  {testBar(1, 50), testBar(2, 51), testBar(3, 52)},
	}
	s := mustNewSim(t, series, &recordingSizer{}, nil)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected empty ledger, got %d trades", len(res.Trades))
	}
	if len(res.Days) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(res.Days))
	}
	for _, day := range res.Days {
		if !day.NetAccountValue.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("%s: NAV = %s, want 10000", day.Date.Format(dayLayout), day.NetAccountValue)
		}
		if !day.RateOfReturn.IsZero() {
			t.Errorf("%s: rate of return = %s, want 0", day.Date.Format(dayLayout), day.RateOfReturn)
		}
	}
}

func TestRun_SimpleLong(t *testing.T) {
	entry := testBar(1, 100)
	entry.EntryLong = true
	series := map[string][]types.SignalBar{
		"ALIOR": {entry, testBar(2, 105)},
	}
	sizer := &flatFeeSizer{shares: 10, fee: dec("1")}
	s := mustNewSim(t, series, sizer, nil)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Day 1: cash = 10000 - (1000+1) = 8999, positions worth 1000.
	assertSnapshot(t, res.Days[0], "1000", "9999", "-0.01")
	// Day 2: same 10 shares marked at 105.
	assertSnapshot(t, res.Days[1], "1050", "10049", "0.49")

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.ID != "2020-01-01_ALIOR_long" {
		t.Errorf("trade id = %q", trade.ID)
	}
	if trade.Closed {
		t.Error("trade should still be open")
	}
	if !trade.EntryValue.Equal(dec("1000")) || !trade.EntryValueWithFee.Equal(dec("1001")) {
		t.Errorf("entry values = %s / %s", trade.EntryValue, trade.EntryValueWithFee)
	}
}

func TestRun_LongRoundTrip(t *testing.T) {
	entry := testBar(1, 100)
	entry.EntryLong = true
	exit := testBar(3, 110)
	exit.ExitLong = true
	series := map[string][]types.SignalBar{
		"ALIOR": {entry, testBar(2, 105), exit},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Day 3: cash = 8999 + (1100-1) = 10098, no positions left.
	assertSnapshot(t, res.Days[2], "0", "10098", "0.98")

	trade := res.Trades[0]
	if !trade.Closed {
		t.Fatal("trade should be closed")
	}
	if trade.SellDate != day(3) {
		t.Errorf("sell date = %s", trade.SellDate)
	}
	if !trade.ExitValue.Equal(dec("1100")) || !trade.ExitValueWithFee.Equal(dec("1099")) {
		t.Errorf("exit values = %s / %s", trade.ExitValue, trade.ExitValueWithFee)
	}
	if !trade.Profit.Equal(dec("98")) {
		t.Errorf("profit = %s, want 98", trade.Profit)
	}
}

func TestRun_ShortRoundTrip(t *testing.T) {
	entry := testBar(1, 50)
	entry.EntryShort = true
	exit := testBar(2, 40)
	exit.ExitShort = true
	series := map[string][]types.SignalBar{
		"KGHM": {entry, exit},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Day 1: cash = 10000 - fee = 9999, position -500, short principal 500.
	assertSnapshot(t, res.Days[0], "-500", "9999", "-0.01")
	// Day 2: principal restored, buy-back costs 401, cash = 9999+500-401.
	assertSnapshot(t, res.Days[1], "0", "10098", "0.98")

	trade := res.Trades[0]
	if trade.Type != types.TradeShort {
		t.Fatalf("trade type = %s", trade.Type)
	}
	if !trade.EntryValueWithFee.Equal(dec("499")) {
		t.Errorf("entry value with fee = %s, want 499", trade.EntryValueWithFee)
	}
	if !trade.ExitValueWithFee.Equal(dec("401")) {
		t.Errorf("exit value with fee = %s, want 401", trade.ExitValueWithFee)
	}
	if !trade.Profit.Equal(dec("98")) {
		t.Errorf("profit = %s, want 98", trade.Profit)
	}
}

func TestRun_StopLoss(t *testing.T) {
	tests := []struct {
		name       string
		enforce    bool
		wantClosed bool
	}{
		{"enabled forces the sell", true, true},
		{"disabled keeps the position", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testBar(1, 100)
			entry.EntryLong = true
			drop := testBar(2, 89)
			drop.StopLoss = dec("90")
			drop.HasStopLoss = true
			series := map[string][]types.SignalBar{
				"ALIOR": {entry, drop},
			}

			cfg := NewConfig()
			cfg.StopLoss = tt.enforce
			s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, cfg)

			res, err := s.Run(0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Trades[0].Closed != tt.wantClosed {
				t.Fatalf("trade closed = %v, want %v", res.Trades[0].Closed, tt.wantClosed)
			}
			if tt.wantClosed {
				// trx 890, fee 1 → cash 8999+889 = 9888
				assertSnapshot(t, res.Days[1], "0", "9888", "-1.12")
			}
		})
	}
}

func TestRun_ShortStopLoss(t *testing.T) {
	entry := testBar(1, 50)
	entry.EntryShort = true
	spike := testBar(2, 60)
	spike.StopLoss = dec("55")
	spike.HasStopLoss = true
	series := map[string][]types.SignalBar{
		"KGHM": {entry, spike},
	}

	cfg := NewConfig()
	cfg.StopLoss = true
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, cfg)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trade := res.Trades[0]
	if !trade.Closed {
		t.Fatal("short should have been covered at the stop")
	}
	// entry 499 with fee, cover 601 with fee
	if !trade.Profit.Equal(dec("-102")) {
		t.Errorf("profit = %s, want -102", trade.Profit)
	}
}

func TestRun_DataGapUsesLastKnownPrice(t *testing.T) {
	entry := testBar(1, 100)
	entry.EntryLong = true
	series := map[string][]types.SignalBar{
		// ALIOR is missing day 2; KGHM keeps the session alive.
		"ALIOR": {entry},
		"KGHM":  {testBar(1, 10), testBar(2, 10)},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Day 2 still values ALIOR at day 1's close.
	assertSnapshot(t, res.Days[1], "1000", "9999", "-0.01")
}

func TestRun_Bankruptcy(t *testing.T) {
	entry := testBar(1, 50)
	entry.EntryShort = true
	spike := testBar(2, 2000)
	spike.ExitShort = true
	series := map[string][]types.SignalBar{
		"KGHM": {entry, spike},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	res, err := s.Run(0)
	if !errors.Is(err, ErrBankrupt) {
		t.Fatalf("error = %v, want ErrBankrupt", err)
	}
	if res != nil {
		t.Fatalf("expected no output after bankruptcy, got %+v", res)
	}
}

func TestRun_DuplicateBuyIsFatal(t *testing.T) {
	first := testBar(1, 100)
	first.EntryLong = true
	second := testBar(2, 105)
	second.EntryLong = true
	series := map[string][]types.SignalBar{
		"ALIOR": {first, second},
	}
	// flatFeeSizer buys every candidate, so day 2 buys into the held symbol.
	s := mustNewSim(t, series, &flatFeeSizer{shares: 1, fee: dec("1")}, nil)

	_, err := s.Run(0)
	if !errors.Is(err, ErrDuplicatePosition) {
		t.Fatalf("error = %v, want ErrDuplicatePosition", err)
	}
}

func TestRun_DayLimit(t *testing.T) {
	series := map[string][]types.SignalBar{
		"ALIOR": {testBar(1, 100), testBar(2, 101), testBar(3, 102), testBar(4, 103), testBar(5, 104)},
	}
	s := mustNewSim(t, series, &recordingSizer{}, nil)

	res, err := s.Run(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(res.Days))
	}
	if res.Days[1].Date != day(2) {
		t.Errorf("last day = %s, want %s", res.Days[1].Date, day(2))
	}
}

func TestRun_RepeatedRunsAreIdentical(t *testing.T) {
	entryLong := testBar(1, 100)
	entryLong.EntryLong = true
	exitLong := testBar(3, 110)
	exitLong.ExitLong = true
	entryShort := testBar(2, 50)
	entryShort.EntryShort = true
	series := map[string][]types.SignalBar{
		"ALIOR": {entryLong, testBar(2, 105), exitLong},
		"KGHM":  {testBar(1, 55), entryShort, testBar(3, 48)},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	first, err := s.Run(0)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := s.Run(0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n first=%+v\nsecond=%+v", first, second)
	}
}

func TestRun_SizerCalledEveryDayWithValueCopies(t *testing.T) {
	series := map[string][]types.SignalBar{
		"ALIOR": {testBar(1, 100), testBar(2, 101), testBar(3, 102)},
	}
	sizer := &recordingSizer{}
	s := mustNewSim(t, series, sizer, nil)

	if _, err := s.Run(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The sizer is called even on days with no candidates.
	if sizer.calls != 3 {
		t.Fatalf("sizer called %d times, want 3", sizer.calls)
	}
	for i, cash := range sizer.cashSeen {
		if !cash.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("call %d: cash = %s, want 10000", i, cash)
		}
	}
}

func TestSelectCandidates_LongWinsOverShort(t *testing.T) {
	both := testBar(1, 100)
	both.EntryLong = true
	both.EntryShort = true
	short := testBar(1, 50)
	short.EntryShort = true
	series := map[string][]types.SignalBar{
		"ALIOR": {both},
		"KGHM":  {short},
	}
	sizer := &recordingSizer{}
	s := mustNewSim(t, series, sizer, nil)

	if _, err := s.Run(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []types.Candidate{
		{Symbol: "ALIOR", Type: types.TradeLong, Price: dec("100")},
		{Symbol: "KGHM", Type: types.TradeShort, Price: dec("50")},
	}
	if !reflect.DeepEqual(sizer.candidatesSeen[0], want) {
		t.Fatalf("candidates = %+v, want %+v", sizer.candidatesSeen[0], want)
	}
}

func TestExitPriority_ExitLongBeforeStopLoss(t *testing.T) {
	entry := testBar(1, 100)
	entry.EntryLong = true
	// Both the exit signal and the stop would fire; the signal must win and
	// the position must be sold exactly once.
	both := testBar(2, 80)
	both.ExitLong = true
	both.StopLoss = dec("90")
	both.HasStopLoss = true
	series := map[string][]types.SignalBar{
		"ALIOR": {entry, both},
	}
	cfg := NewConfig()
	cfg.StopLoss = true
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, cfg)

	res, err := s.Run(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 1 || !res.Trades[0].Closed {
		t.Fatalf("expected exactly one closed trade, got %+v", res.Trades)
	}
	// Long-exit math: 800-1 proceeds against 1001 entry.
	if !res.Trades[0].Profit.Equal(dec("-202")) {
		t.Errorf("profit = %s, want -202", res.Trades[0].Profit)
	}
}

func TestRun_AccountingIdentityHoldsEachDay(t *testing.T) {
	entryLong := testBar(1, 100)
	entryLong.EntryLong = true
	entryShort := testBar(1, 50)
	entryShort.EntryShort = true
	exitLong := testBar(3, 110)
	exitLong.ExitLong = true
	series := map[string][]types.SignalBar{
		"ALIOR": {entryLong, testBar(2, 105), exitLong},
		"KGHM":  {entryShort, testBar(2, 45), testBar(3, 40)},
	}
	s := mustNewSim(t, series, &flatFeeSizer{shares: 10, fee: dec("1")}, nil)

	// Drive the run day by day so the internal balances are visible.
	r := s.newRun()
	for _, d := range s.panel.tradingDays(0) {
		r.processExits(d)
		if r.cash.IsNegative() {
			t.Fatalf("unexpected bankruptcy on %s", d)
		}
		candidates := r.selectCandidates(d)
		capital := r.cash.Add(r.accountValue(d)).Add(r.shorts.total())
		for _, decision := range s.sizer.DecideWhatToBuy(r.cash, candidates, capital) {
			if err := r.buy(decision, d); err != nil {
				t.Fatalf("buy: %v", err)
			}
		}
		r.summarizeDay(d)

		snap := r.snapshots[len(r.snapshots)-1]
		identity := snap.AccountValue.Add(r.cash).Add(r.shorts.total())
		if !snap.NetAccountValue.Equal(identity) {
			t.Fatalf("%s: NAV %s != account %s + cash %s + shorts %s",
				d.Format(dayLayout), snap.NetAccountValue, snap.AccountValue, r.cash, r.shorts.total())
		}
	}
}

func TestNew_Validation(t *testing.T) {
	series := map[string][]types.SignalBar{"ALIOR": {testBar(1, 100)}}

	if _, err := New(series, nil, nil); err == nil {
		t.Error("expected error for nil sizer")
	}

	cfg := NewConfig()
	cfg.InitialCapital = decimal.Zero
	if _, err := New(series, &recordingSizer{}, cfg); err == nil {
		t.Error("expected error for non-positive capital")
	}

	cfg = NewConfig()
	cfg.PriceColumn = "vwap"
	if _, err := New(series, &recordingSizer{}, cfg); err == nil {
		t.Error("expected error for unknown price column")
	}
}

// ----------------Helper functions----------------

func day(n int) time.Time {
	return time.Date(2020, time.January, n, 0, 0, 0, 0, time.UTC)
}

func testBar(dayOfMonth int, price float64) types.SignalBar {
	p := decimal.NewFromFloat(price)
	return types.SignalBar{
		Date:   day(dayOfMonth),
		Open:   p,
		High:   p,
		Low:    p,
		Close:  p,
		Volume: decimal.NewFromInt(1000),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustNewSim(t *testing.T, series map[string][]types.SignalBar, sizer PositionSizer, cfg *Config) *Simulator {
	t.Helper()
	if cfg == nil {
		cfg = NewConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s, err := New(series, sizer, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func assertSnapshot(t *testing.T, snap types.DaySnapshot, accountValue, nav, ror string) {
	t.Helper()
	if !snap.AccountValue.Equal(dec(accountValue)) {
		t.Errorf("%s: account value = %s, want %s", snap.Date.Format(dayLayout), snap.AccountValue, accountValue)
	}
	if !snap.NetAccountValue.Equal(dec(nav)) {
		t.Errorf("%s: NAV = %s, want %s", snap.Date.Format(dayLayout), snap.NetAccountValue, nav)
	}
	if !snap.RateOfReturn.Equal(dec(ror)) {
		t.Errorf("%s: rate of return = %s, want %s", snap.Date.Format(dayLayout), snap.RateOfReturn, ror)
	}
}

// flatFeeSizer buys every candidate with a fixed share count and flat fee.
type flatFeeSizer struct {
	shares int64
	fee    decimal.Decimal
}

func (s *flatFeeSizer) CalculateFee(decimal.Decimal) decimal.Decimal {
	return s.fee
}

func (s *flatFeeSizer) DecideWhatToBuy(_ decimal.Decimal, candidates []types.Candidate, _ decimal.Decimal) []types.BuyDecision {
	var decisions []types.BuyDecision
	shares := decimal.NewFromInt(s.shares)
	for _, c := range candidates {
		decisions = append(decisions, types.BuyDecision{
			Symbol:     c.Symbol,
			Type:       c.Type,
			Price:      c.Price,
			Shares:     shares,
			GrossValue: c.Price.Mul(shares),
			Fee:        s.fee,
		})
	}
	return decisions
}

// recordingSizer buys nothing and records what it was shown.
type recordingSizer struct {
	calls          int
	cashSeen       []decimal.Decimal
	candidatesSeen [][]types.Candidate
}

func (s *recordingSizer) CalculateFee(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (s *recordingSizer) DecideWhatToBuy(cash decimal.Decimal, candidates []types.Candidate, _ decimal.Decimal) []types.BuyDecision {
	s.calls++
	s.cashSeen = append(s.cashSeen, cash)
	s.candidatesSeen = append(s.candidatesSeen, candidates)
	return nil
}
