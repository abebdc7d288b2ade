// Package stats provides the NaN-skipping aggregates the report verbs use.
// Missing values travel as NaN through every pipeline; these helpers drop
// them before deferring to gonum for the arithmetic.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Mean is the arithmetic mean of the non-NaN values, or NaN if none remain.
func Mean(xs []float64) float64 {
	vs := present(xs)
	if len(vs) == 0 {
		return math.NaN()
	}
	return stat.Mean(vs, nil)
}

// Std is the sample (ddof=1) standard deviation of the non-NaN values.
// Fewer than two values yield NaN.
func Std(xs []float64) float64 {
	vs := present(xs)
	if len(vs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vs, nil)
}

// Median is the middle of the non-NaN values, averaging the two central
// values for an even count, or NaN if none remain.
func Median(xs []float64) float64 {
	vs := present(xs)
	if len(vs) == 0 {
		return math.NaN()
	}
	sort.Float64s(vs)
	mid := len(vs) / 2
	if len(vs)%2 == 1 {
		return vs[mid]
	}
	return (vs[mid-1] + vs[mid]) / 2
}

// Deltas converts a cumulative counter series (already ordered) into
// successive differences. The first position is NaN, as is any position
// where the counter decreased: a reset must read as missing, not as a
// negative rate.
func Deltas(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		d := xs[i] - xs[i-1]
		if math.IsNaN(d) || d < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = d
	}
	return out
}
