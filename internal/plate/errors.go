package plate

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrImageCount = errors.New("wrong image count")
	ErrGrid       = errors.New("grid cannot fit images")
	ErrCellSize   = errors.New("non-positive cell size")
	ErrReadImage  = errors.New("read image failed")
)
