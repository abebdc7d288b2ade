package e2elatency

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoData = errors.New("no e2e latency files found")
)
