package figure

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// Series is one legend entry: a label and one value per category. Missing
// values (NaN) draw as zero-height bars but stay missing in any summary.
type Series struct {
	Label  string
	Values []float64
}

const (
	barOutline   = 0.5 // points
	groupBarSpan = 44  // points shared by one category's bar group
	maxBarWidth  = 18  // points
	stackedWidth = 26  // points
)

func plotValues(vals []float64) plotter.Values {
	out := make(plotter.Values, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = 0
			continue
		}
		out[i] = v
	}
	return out
}

func styleBar(bc *plotter.BarChart, fill color.Color) {
	bc.Color = fill
	bc.LineStyle.Color = color.Black
	bc.LineStyle.Width = vg.Points(barOutline)
}

// GroupedBars draws len(series) bars side by side per category, centered on
// the category tick, with grayscale fills assigned in series order.
func GroupedBars(p *plot.Plot, series []Series, categories []string, fills []color.Color) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: no series", ErrEmptyChart)
	}
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return fmt.Errorf("%w: series %q has %d values for %d categories",
				ErrSeriesShape, s.Label, len(s.Values), len(categories))
		}
	}

	bw := vg.Points(groupBarSpan) / vg.Length(len(series))
	if bw > vg.Points(maxBarWidth) {
		bw = vg.Points(maxBarWidth)
	}
	spacing := vg.Points(1)
	for i, s := range series {
		bc, err := plotter.NewBarChart(plotValues(s.Values), bw)
		if err != nil {
			return err
		}
		styleBar(bc, fills[i%len(fills)])
		bc.Offset = (bw + spacing) * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bc)
		p.Legend.Add(s.Label, bc)
	}
	p.NominalX(categories...)
	return nil
}

// StackedBars draws one bar per category with the series stacked bottom-up
// in slice order.
func StackedBars(p *plot.Plot, series []Series, categories []string, fills []color.Color) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: no series", ErrEmptyChart)
	}
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return fmt.Errorf("%w: series %q has %d values for %d categories",
				ErrSeriesShape, s.Label, len(s.Values), len(categories))
		}
	}

	var prev *plotter.BarChart
	for i, s := range series {
		bc, err := plotter.NewBarChart(plotValues(s.Values), vg.Points(stackedWidth))
		if err != nil {
			return err
		}
		styleBar(bc, fills[i%len(fills)])
		if prev != nil {
			bc.StackOn(prev)
		}
		p.Add(bc)
		p.Legend.Add(s.Label, bc)
		prev = bc
	}
	p.NominalX(categories...)
	return nil
}

// AddLabels places small annotations (totals, percentages) above the given
// data coordinates.
func AddLabels(p *plot.Plot, xys plotter.XYs, texts []string, col color.Color) error {
	return addLabels(p, xys, texts, col, text.YBottom)
}

// AddCenteredLabels places annotations centered on the given coordinates,
// for text inside stacked segments.
func AddCenteredLabels(p *plot.Plot, xys plotter.XYs, texts []string, col color.Color) error {
	return addLabels(p, xys, texts, col, text.YCenter)
}

func addLabels(p *plot.Plot, xys plotter.XYs, texts []string, col color.Color, yAlign text.YAlignment) error {
	if col == nil {
		col = color.Black
	}
	if len(xys) != len(texts) {
		return fmt.Errorf("%w: %d points for %d labels", ErrSeriesShape, len(xys), len(texts))
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(7)
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = yAlign
		labels.TextStyle[i].Color = col
	}
	p.Add(labels)
	return nil
}
