package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"backsim/types"
)

// WriteResultsCSVFile writes the daily valuation table to a CSV file at the
// given path.
func WriteResultsCSVFile(path string, days []types.DaySnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	return WriteResultsCSV(f, days)
}

// WriteResultsCSV writes the daily valuation table to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func WriteResultsCSV(w io.Writer, days []types.DaySnapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"date", "account_value", "net_account_value", "rate_of_return"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, day := range days {
		record := []string{
			day.Date.Format(dayLayout),
			day.AccountValue.String(),
			day.NetAccountValue.String(),
			day.RateOfReturn.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteTradesCSVFile writes the trade ledger to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes the trade ledger, open trades included, to any
// io.Writer as CSV. Exit columns are empty for open trades.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"symbol",
		"type",
		"buy_date",
		"sell_date",
		"entry_value",
		"entry_value_with_fee",
		"exit_value",
		"exit_value_with_fee",
		"profit",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.ID,
			t.Symbol,
			string(t.Type),
			t.BuyDate.Format(dayLayout),
			formatOptionalDate(t.SellDate, t.Closed),
			t.EntryValue.String(),
			t.EntryValueWithFee.String(),
			"",
			"",
			"",
		}
		if t.Closed {
			record[7] = t.ExitValue.String()
			record[8] = t.ExitValueWithFee.String()
			record[9] = t.Profit.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatOptionalDate(t time.Time, set bool) string {
	if !set {
		return ""
	}
	return t.Format(dayLayout)
}
