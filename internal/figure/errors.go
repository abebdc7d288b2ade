package figure

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyChart  = errors.New("chart has no series")
	ErrSeriesShape = errors.New("series shape mismatch")
)
