package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaySnapshot is the end-of-day valuation row. RateOfReturn is a percentage
// relative to initial capital.
type DaySnapshot struct {
	Date            time.Time
	AccountValue    decimal.Decimal
	NetAccountValue decimal.Decimal
	RateOfReturn    decimal.Decimal
}
