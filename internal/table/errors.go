package table

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrSchema = errors.New("unexpected csv schema")
	ErrParse  = errors.New("csv parse failed")
)
