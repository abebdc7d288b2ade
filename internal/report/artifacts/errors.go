package artifacts

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoData  = errors.New("no artifact size files found")
	ErrBadUnit = errors.New("unsupported size unit")
)
