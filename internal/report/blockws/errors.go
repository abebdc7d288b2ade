package blockws

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoMeasurements = errors.New("no ledger measurements")
)
