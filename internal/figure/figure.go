// Package figure wraps gonum/plot with the fixed IEEE print styling every
// report verb shares: single/double column sizing, small sans fonts, dotted
// horizontal grid, grayscale series fills with black outlines, and paired
// PDF+PNG output.
package figure

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Canvas sizing. Widths are the IEEE column widths in inches.
const (
	singleColumnInches = 3.5
	doubleColumnInches = 7.2
)

// SingleColumn returns the canvas size for a single-column figure with the
// given height/width aspect.
func SingleColumn(aspect float64) (w, h vg.Length) {
	w = singleColumnInches * vg.Inch
	return w, vg.Length(float64(w) * aspect)
}

// DoubleColumn returns the canvas size for a double-column figure.
func DoubleColumn(aspect float64) (w, h vg.Length) {
	w = doubleColumnInches * vg.Inch
	return w, vg.Length(float64(w) * aspect)
}

// gray returns an opaque gray where 0 is black and 1 is white, mirroring
// matplotlib's string grays ("0.25" etc).
func gray(level float64) color.Color {
	v := uint8(math.Round(level * 255))
	return color.Gray{Y: v}
}

// Palettes used across the verbs. Series order is meaningful: darker bars
// come first so the legend reads top-down dark to light.
var (
	// SeriesGrays3 fills the three chaincode-function series.
	SeriesGrays3 = []color.Color{gray(0.25), gray(0.55), gray(0.75)}
	// SeriesGrays6 fills the six artifact series.
	SeriesGrays6 = []color.Color{gray(0.20), gray(0.35), gray(0.50), gray(0.65), gray(0.80), gray(0.90)}
	// StackGrays4 fills stacked stage segments bottom-up light to dark.
	StackGrays4 = []color.Color{gray(0.85), gray(0.65), gray(0.45), gray(0.25)}
	// PairGrays fills two-series comparisons.
	PairGrays = []color.Color{gray(0.25), gray(0.65)}
)

// New builds a plot with the shared styling applied.
func New(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	p.Title.TextStyle.Font.Size = vg.Points(9)
	p.X.Label.TextStyle.Font.Size = vg.Points(8)
	p.Y.Label.TextStyle.Font.Size = vg.Points(8)
	p.X.Tick.Label.Font.Size = vg.Points(7)
	p.Y.Tick.Label.Font.Size = vg.Points(7)
	p.Legend.TextStyle.Font.Size = vg.Points(7)
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = vg.Points(1)

	grid := plotter.NewGrid()
	grid.Vertical.Width = 0
	grid.Horizontal.Width = vg.Points(0.4)
	grid.Horizontal.Color = gray(0.6)
	grid.Horizontal.Dashes = []vg.Length{vg.Points(0.6), vg.Points(1.8)}
	p.Add(grid)

	return p
}

// Save renders p to base+".pdf" and base+".png" (at the given DPI),
// creating parent directories. Both paths are returned for logging.
func Save(p *plot.Plot, w, h vg.Length, base string, dpi int) (pdfPath, pngPath string, err error) {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return "", "", err
	}
	pdfPath = base + ".pdf"
	pngPath = base + ".png"
	if err := writePDF([][]*plot.Plot{{p}}, 1, 1, w, h, pdfPath); err != nil {
		return "", "", err
	}
	if err := writePNG([][]*plot.Plot{{p}}, 1, 1, w, h, pngPath, dpi); err != nil {
		return "", "", err
	}
	return pdfPath, pngPath, nil
}

// SaveRow renders a 1xN panel row (for example the tx-costs plate) to
// base+".pdf"/".png".
func SaveRow(plots []*plot.Plot, w, h vg.Length, base string, dpi int) (pdfPath, pngPath string, err error) {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return "", "", err
	}
	row := make([][]*plot.Plot, 1)
	row[0] = plots
	pdfPath = base + ".pdf"
	pngPath = base + ".png"
	if err := writePDF(row, 1, len(plots), w, h, pdfPath); err != nil {
		return "", "", err
	}
	if err := writePNG(row, 1, len(plots), w, h, pngPath, dpi); err != nil {
		return "", "", err
	}
	return pdfPath, pngPath, nil
}

func tiles(rows, cols int) draw.Tiles {
	return draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Points(6),
		PadY:      vg.Points(6),
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
}

func drawAligned(plots [][]*plot.Plot, rows, cols int, dc draw.Canvas) {
	canvases := plot.Align(plots, tiles(rows, cols), dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}
}

func writePDF(plots [][]*plot.Plot, rows, cols int, w, h vg.Length, path string) error {
	c := vgpdf.New(w, h)
	drawAligned(plots, rows, cols, draw.New(c))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePNG(plots [][]*plot.Plot, rows, cols int, w, h vg.Length, path string, dpi int) error {
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	drawAligned(plots, rows, cols, draw.New(c))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
