package scalingutil

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBadAggregate = errors.New("unsupported aggregate")
)
