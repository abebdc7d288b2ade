// Package scalingutil renders the allocated-slot utilization of each ring
// size as a stacked utilized/unused bar with percentage annotations.
package scalingutil

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot/plotter"

	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
)

const inputName = "scaling_util.csv"

// Rings fixes the charted ring exponents. A ring absent from the input
// still gets a slot, drawn empty.
var Rings = []int{13, 14, 15}

// Utilization is the aggregated slot utilization per ring exponent, as a
// fraction in [0, 1].
type Utilization map[int]float64

// Load aggregates the utilization column of scaling_util.csv per ring
// exponent with the requested aggregate, mean or median.
func Load(path, aggregate string) (Utilization, error) {
	if aggregate != "mean" && aggregate != "median" {
		return nil, fmt.Errorf("%w: %q", ErrBadAggregate, aggregate)
	}
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("logN", "utilization"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logNIdx := t.Col("logN")
	utilIdx := t.Col("utilization")

	byRing := make(map[int][]float64)
	for _, row := range t.Rows {
		logN := table.Float(table.Cell(row, logNIdx))
		if math.IsNaN(logN) {
			continue
		}
		byRing[int(logN)] = append(byRing[int(logN)], table.Float(table.Cell(row, utilIdx)))
	}

	util := make(Utilization, len(byRing))
	for ring, vals := range byRing {
		if aggregate == "median" {
			util[ring] = stats.Median(vals)
		} else {
			util[ring] = stats.Mean(vals)
		}
	}
	return util, nil
}

func render(util Utilization, base string, dpi int) (string, string, error) {
	cats := make([]string, len(Rings))
	utilized := make([]float64, len(Rings))
	unused := make([]float64, len(Rings))
	for i, ring := range Rings {
		cats[i] = fmt.Sprintf("2^%d", ring)
		u, ok := util[ring]
		if !ok {
			u = math.NaN()
		}
		utilized[i] = u
		unused[i] = 1 - u
	}

	p := figure.New("Allocated-slot utilization by ring (stacked)", "Ring size N", "Fraction of slots")
	series := []figure.Series{
		{Label: "Utilized", Values: utilized},
		{Label: "Unused", Values: unused},
	}
	fills := []color.Color{color.Gray{Y: 77}, color.Gray{Y: 191}} // 0.30 and 0.75 gray
	if err := figure.StackedBars(p, series, cats, fills); err != nil {
		return "", "", err
	}
	p.Y.Min = 0
	p.Y.Max = 1.05
	p.Legend.Left = false

	var whiteXYs, blackXYs plotter.XYs
	var whiteTexts, blackTexts []string
	for i, u := range utilized {
		if math.IsNaN(u) {
			continue
		}
		whiteXYs = append(whiteXYs, plotter.XY{X: float64(i), Y: u / 2})
		whiteTexts = append(whiteTexts, fmt.Sprintf("%.1f%%", 100*u))
		// skip the unused label when the sliver is too thin to hold it
		if rem := 1 - u; rem > 0.03 {
			blackXYs = append(blackXYs, plotter.XY{X: float64(i), Y: u + rem/2})
			blackTexts = append(blackTexts, fmt.Sprintf("%.1f%%", 100*rem))
		}
	}
	if len(whiteXYs) > 0 {
		if err := figure.AddCenteredLabels(p, whiteXYs, whiteTexts, color.White); err != nil {
			return "", "", err
		}
	}
	if len(blackXYs) > 0 {
		if err := figure.AddCenteredLabels(p, blackXYs, blackTexts, color.Black); err != nil {
			return "", "", err
		}
	}

	w, h := figure.SingleColumn(0.75)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the scaling-util verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("scaling-util", flag.ContinueOnError)
	indir := flags.String("indir", "data", "input directory holding scaling_util.csv")
	outdir := flags.String("outdir", "figures", "output directory for figures")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	aggregate := flags.String("aggregate", "mean", "aggregation across record sizes: mean or median")
	if err := flags.Parse(args); err != nil {
		return err
	}

	util, err := Load(filepath.Join(*indir, inputName), *aggregate)
	if err != nil {
		return err
	}
	env.Metrics.AddRowsParsed(len(util))

	pdf, png, err := render(util, filepath.Join(*outdir, "scaling_util_utilization_stacked"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}
