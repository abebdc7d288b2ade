// Package units parses the human-readable size and percentage tokens that
// docker stats emits, such as "12MB", "1.2kB / 0B" and "3.14%".
//
// Malformed tokens never produce an error: they become NaN so a bad cell
// costs one value, not the whole load.
package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Decimal and binary multipliers, keyed by lower-case unit suffix.
var factors = map[string]float64{
	"b":   1,
	"kb":  1e3,
	"mb":  1e6,
	"gb":  1e9,
	"tb":  1e12,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

var sizeRe = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*([A-Za-z]+)\s*$`)

// ParseBytes converts a size token ("1.5MB", "200KiB", "17") to bytes.
// A bare number is taken as bytes. Unknown suffixes are retried with a
// trailing "b" appended after stripping one, so "K" and "k" behave as "kB";
// if that also fails the multiplier is 1. Anything else is NaN.
func ParseBytes(token string) float64 {
	s := strings.TrimSpace(token)
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.NaN()
	}
	unit := strings.ToLower(m[2])
	factor, ok := factors[unit]
	if !ok {
		factor, ok = factors[strings.TrimSuffix(unit, "b")+"b"]
		if !ok {
			factor = 1
		}
	}
	return v * factor
}

// ParsePair splits a composite "in / out" field (for example
// "1.45kB / 1.08kB") and converts both sides to bytes. Fields without a
// slash yield (NaN, NaN).
func ParsePair(field string) (float64, float64) {
	a, b, found := strings.Cut(field, "/")
	if !found {
		return math.NaN(), math.NaN()
	}
	return ParseBytes(a), ParseBytes(b)
}

// ParsePercent converts a "12.34%" token (the sign is optional) to its
// numeric value, or NaN.
func ParsePercent(token string) float64 {
	s := strings.TrimSuffix(strings.TrimSpace(token), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
