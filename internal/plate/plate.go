// Package plate composes previously rendered raster panels into a single
// labeled page. It never touches chart semantics: panels are placed on a
// normalized grid and tagged with sequential letters, nothing more.
package plate

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// labelFonts holds the Liberation Sans Bold face registered under a
// normal-weight descriptor. vgpdf registers faces with an empty style
// string but selects WeightBold descriptors with style "B", so a bold
// descriptor can never resolve there; registering the bold face bytes
// under a plain descriptor keeps the labels bold while letting the PDF
// backend find the font.
var labelFonts = func() *font.Cache {
	for _, face := range liberation.Collection() {
		if face.Font.Variant == "Sans" &&
			face.Font.Weight == xfont.WeightBold &&
			face.Font.Style == xfont.StyleNormal {
			return font.NewCache(font.Collection{{
				Font: font.Font{Typeface: "Liberation", Variant: "Sans"},
				Face: face.Face,
			}})
		}
	}
	panic("plate: Liberation Sans Bold face not found")
}()

// Layout describes the page and its grid in normalized page fractions,
// mirroring the usual matplotlib composite-figure arithmetic.
type Layout struct {
	Rows, Cols        int
	WidthIn, HeightIn float64 // page size, inches
	WSpace, HSpace    float64 // inter-panel spacing, page fraction
	Pad               float64 // outer padding, page fraction
	LabelSize         float64 // panel letter size, points
	LabelOffset       float64 // letter inset from the panel corner, panel fraction
}

// Wide is the free-grid default: a wide plate of up to rows x cols panels.
func Wide() Layout {
	return Layout{
		Rows: 1, Cols: 3,
		WidthIn: 22, HeightIn: 7,
		WSpace: 0.05, HSpace: 0.05,
		Pad:         0.02,
		LabelSize:   12,
		LabelOffset: 0.015,
	}
}

// Column is the single-column preset: exactly three stacked panels.
func Column() Layout {
	return Layout{
		Rows: 3, Cols: 1,
		WidthIn: 3.5, HeightIn: 7.8,
		WSpace: 0, HSpace: 0.05,
		Pad:         0.02,
		LabelSize:   12,
		LabelOffset: 0.015,
	}
}

// SixPanel is the 2x3 preset: exactly six panels, A through F.
func SixPanel() Layout {
	return Layout{
		Rows: 2, Cols: 3,
		WidthIn: 22, HeightIn: 9,
		WSpace: 0.06, HSpace: 0.08,
		Pad:         0.02,
		LabelSize:   14,
		LabelOffset: 0.015,
	}
}

// cellSize computes the normalized panel size; non-positive results mean
// the spacing swallowed the page.
func (l Layout) cellSize() (w, h float64, err error) {
	w = (1 - 2*l.Pad - float64(l.Cols-1)*l.WSpace) / float64(l.Cols)
	h = (1 - 2*l.Pad - float64(l.Rows-1)*l.HSpace) / float64(l.Rows)
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d grid with wspace=%g hspace=%g pad=%g",
			ErrCellSize, l.Rows, l.Cols, l.WSpace, l.HSpace, l.Pad)
	}
	return w, h, nil
}

// Validate checks the layout against the number of panels.
func (l Layout) Validate(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: no images provided", ErrImageCount)
	}
	if l.Rows < 1 || l.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrGrid, l.Rows, l.Cols)
	}
	if l.Rows*l.Cols < n {
		return fmt.Errorf("%w: %dx%d grid cannot fit %d images", ErrGrid, l.Rows, l.Cols, n)
	}
	if _, _, err := l.cellSize(); err != nil {
		return err
	}
	return nil
}

// ValidateExact additionally pins the panel count, for the fixed presets.
func (l Layout) ValidateExact(n, want int) error {
	if n != want {
		return fmt.Errorf("%w: expected exactly %d images, got %d", ErrImageCount, want, n)
	}
	return l.Validate(n)
}

func letter(n int) string { return string(rune('A' + n)) }

func loadPanel(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadImage, path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadImage, path, err)
	}
	return img, nil
}

// Compose places the images on the grid and writes a single-page PDF to
// out. All inputs are loaded and the layout fully validated before any
// output is created, so a failed run leaves no artifact behind.
func Compose(l Layout, imagePaths []string, out string) error {
	if err := l.Validate(len(imagePaths)); err != nil {
		return err
	}
	imgs := make([]image.Image, len(imagePaths))
	for i, path := range imagePaths {
		img, err := loadPanel(path)
		if err != nil {
			return err
		}
		imgs[i] = img
	}

	pageW := vg.Length(l.WidthIn) * vg.Inch
	pageH := vg.Length(l.HeightIn) * vg.Inch
	cellW, cellH, err := l.cellSize()
	if err != nil {
		return err
	}

	c := vgpdf.New(pageW, pageH)
	dc := draw.New(c)

	labelStyle := text.Style{
		Color: color.Black,
		Font: font.Font{
			Typeface: "Liberation",
			Variant:  "Sans",
			Size:     vg.Points(l.LabelSize),
		},
		XAlign:  text.XLeft,
		YAlign:  text.YTop,
		Handler: text.Plain{Fonts: labelFonts},
	}

	for idx, img := range imgs {
		r := idx / l.Cols
		col := idx % l.Cols
		// Row 0 renders at the top of the page.
		left := l.Pad + float64(col)*(cellW+l.WSpace)
		bottom := l.Pad + float64(l.Rows-1-r)*(cellH+l.HSpace)

		rect := vg.Rectangle{
			Min: vg.Point{X: vg.Length(left) * pageW, Y: vg.Length(bottom) * pageH},
			Max: vg.Point{X: vg.Length(left+cellW) * pageW, Y: vg.Length(bottom+cellH) * pageH},
		}
		c.DrawImage(rect, img)

		labelPt := vg.Point{
			X: rect.Min.X + vg.Length(l.LabelOffset)*rect.Size().X,
			Y: rect.Max.Y - vg.Length(l.LabelOffset)*rect.Size().Y,
		}
		dc.FillText(labelStyle, labelPt, letter(idx))
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
