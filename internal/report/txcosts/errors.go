package txcosts

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoData = errors.New("no channels present in both summaries")
)
