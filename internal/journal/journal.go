// Package journal persists finished replay runs to a SQLite database so
// results survive the process and can be compared across runs.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"backsim/types"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	run_id            INTEGER NOT NULL REFERENCES runs(id),
	date              TEXT NOT NULL,
	account_value     TEXT NOT NULL,
	net_account_value TEXT NOT NULL,
	rate_of_return    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	run_id               INTEGER NOT NULL REFERENCES runs(id),
	trade_id             TEXT NOT NULL,
	symbol               TEXT NOT NULL,
	type                 TEXT NOT NULL,
	buy_date             TEXT NOT NULL,
	sell_date            TEXT,
	entry_value          TEXT NOT NULL,
	entry_value_with_fee TEXT NOT NULL,
	exit_value           TEXT,
	exit_value_with_fee  TEXT,
	profit               TEXT,
	closed               INTEGER NOT NULL
);
`

const dateLayout = "2006-01-02"

// Journal wraps a SQLite database holding replay results.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path. Pass ":memory:"
// for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// SaveRun stores a named run with its daily snapshots and trades in a
// single transaction and returns the new run id.
func (j *Journal) SaveRun(name string, days []types.DaySnapshot, trades []types.Trade) (int64, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, d := range days {
		_, err := tx.Exec(
			`INSERT INTO snapshots (run_id, date, account_value, net_account_value, rate_of_return)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, d.Date.Format(dateLayout),
			d.AccountValue.String(), d.NetAccountValue.String(), d.RateOfReturn.String())
		if err != nil {
			return 0, fmt.Errorf("insert snapshot: %w", err)
		}
	}

	for _, t := range trades {
		var sellDate, exitValue, exitWithFee, profit any
		if t.Closed {
			sellDate = t.SellDate.Format(dateLayout)
			exitValue = t.ExitValue.String()
			exitWithFee = t.ExitValueWithFee.String()
			profit = t.Profit.String()
		}
		_, err := tx.Exec(
			`INSERT INTO trades (run_id, trade_id, symbol, type, buy_date, sell_date,
			   entry_value, entry_value_with_fee, exit_value, exit_value_with_fee, profit, closed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.ID, t.Symbol, string(t.Type), t.BuyDate.Format(dateLayout), sellDate,
			t.EntryValue.String(), t.EntryValueWithFee.String(), exitValue, exitWithFee, profit, t.Closed)
		if err != nil {
			return 0, fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// Snapshots loads the daily snapshots of a stored run in date order.
func (j *Journal) Snapshots(runID int64) ([]types.DaySnapshot, error) {
	rows, err := j.db.Query(
		`SELECT date, account_value, net_account_value, rate_of_return
		 FROM snapshots WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []types.DaySnapshot
	for rows.Next() {
		var date, account, nav, ror string
		if err := rows.Scan(&date, &account, &nav, &ror); err != nil {
			return nil, err
		}
		d, err := parseSnapshot(date, account, nav, ror)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Trades loads the trades of a stored run in insertion order.
func (j *Journal) Trades(runID int64) ([]types.Trade, error) {
	rows, err := j.db.Query(
		`SELECT trade_id, symbol, type, buy_date, sell_date,
		   entry_value, entry_value_with_fee, exit_value, exit_value_with_fee, profit, closed
		 FROM trades WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func parseSnapshot(date, account, nav, ror string) (types.DaySnapshot, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return types.DaySnapshot{}, err
	}
	vals := make([]decimal.Decimal, 3)
	for i, raw := range []string{account, nav, ror} {
		if vals[i], err = decimal.NewFromString(raw); err != nil {
			return types.DaySnapshot{}, err
		}
	}
	return types.DaySnapshot{
		Date:            day,
		AccountValue:    vals[0],
		NetAccountValue: vals[1],
		RateOfReturn:    vals[2],
	}, nil
}

func scanTrade(rows *sql.Rows) (types.Trade, error) {
	var t types.Trade
	var typ, buyDate string
	var sellDate, exitValue, exitWithFee, profit sql.NullString
	var entryValue, entryWithFee string
	err := rows.Scan(&t.ID, &t.Symbol, &typ, &buyDate, &sellDate,
		&entryValue, &entryWithFee, &exitValue, &exitWithFee, &profit, &t.Closed)
	if err != nil {
		return types.Trade{}, err
	}
	t.Type = types.TradeType(typ)
	if t.BuyDate, err = time.Parse(dateLayout, buyDate); err != nil {
		return types.Trade{}, err
	}
	if t.EntryValue, err = decimal.NewFromString(entryValue); err != nil {
		return types.Trade{}, err
	}
	if t.EntryValueWithFee, err = decimal.NewFromString(entryWithFee); err != nil {
		return types.Trade{}, err
	}
	if t.Closed {
		if t.SellDate, err = time.Parse(dateLayout, sellDate.String); err != nil {
			return types.Trade{}, err
		}
		if t.ExitValue, err = decimal.NewFromString(exitValue.String); err != nil {
			return types.Trade{}, err
		}
		if t.ExitValueWithFee, err = decimal.NewFromString(exitWithFee.String); err != nil {
			return types.Trade{}, err
		}
		if t.Profit, err = decimal.NewFromString(profit.String); err != nil {
			return types.Trade{}, err
		}
	}
	return t, nil
}
