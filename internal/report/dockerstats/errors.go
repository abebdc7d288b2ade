package dockerstats

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoData = errors.New("no docker stats matched the peer filter")
)
