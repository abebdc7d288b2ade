package channel

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBadID    = errors.New("malformed channel id")
	ErrScanRoot = errors.New("channel root scan failed")
)
