package sim

import "errors"

// Fatal run conditions. Both abort Run immediately.
var (
	// ErrBankrupt means cash went negative after the exit phase of a day.
	ErrBankrupt = errors.New("account bankrupted, cash is negative after exits")
	// ErrDuplicatePosition means the sizer returned a buy for a symbol that
	// is already held. Adding to or partially replacing a position is not
	// supported.
	ErrDuplicatePosition = errors.New("symbol already has an open position")
)
