package plate_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pirplot/internal/plate"
	. "github.com/smartystreets/goconvey/convey"
)

// writePanel writes a small solid PNG usable as a pre-rendered panel.
func writePanel(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode panel: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close panel: %v", err)
	}
	return path
}

func TestComposeColumn(t *testing.T) {
	Convey("Given three pre-rendered panels", t, func() {
		dir := t.TempDir()
		paths := []string{
			writePanel(t, dir, "a.png", color.Gray{Y: 60}),
			writePanel(t, dir, "b.png", color.Gray{Y: 140}),
			writePanel(t, dir, "c.png", color.Gray{Y: 220}),
		}
		out := filepath.Join(dir, "figures", "plate_1x3.pdf")

		Convey("When composed with the exact required count", func() {
			l := plate.Column()
			So(l.ValidateExact(len(paths), 3), ShouldBeNil)
			So(plate.Compose(l, paths, out), ShouldBeNil)

			Convey("Then one output file exists", func() {
				info, err := os.Stat(out)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When given the wrong count", func() {
			l := plate.Column()
			err := l.ValidateExact(2, 3)
			So(errors.Is(err, plate.ErrImageCount), ShouldBeTrue)

			Convey("Then no output is produced", func() {
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}

func TestComposeFreeGrid(t *testing.T) {
	Convey("Given two panels and a free grid", t, func() {
		dir := t.TempDir()
		paths := []string{
			writePanel(t, dir, "a.png", color.Gray{Y: 40}),
			writePanel(t, dir, "b.png", color.Gray{Y: 200}),
		}

		Convey("When the grid fits them", func() {
			l := plate.Wide()
			l.Rows, l.Cols = 1, 2
			out := filepath.Join(dir, "wide.pdf")
			So(plate.Compose(l, paths, out), ShouldBeNil)
			_, err := os.Stat(out)
			So(err, ShouldBeNil)
		})

		Convey("When the grid is too small", func() {
			l := plate.Wide()
			l.Rows, l.Cols = 1, 1
			out := filepath.Join(dir, "never.pdf")
			So(errors.Is(plate.Compose(l, paths, out), plate.ErrGrid), ShouldBeTrue)
			_, statErr := os.Stat(out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("When spacing swallows the page", func() {
			l := plate.Wide()
			l.Rows, l.Cols = 1, 2
			l.WSpace = 1.5
			So(errors.Is(l.Validate(2), plate.ErrCellSize), ShouldBeTrue)
		})

		Convey("When a panel is missing on disk", func() {
			l := plate.Wide()
			l.Rows, l.Cols = 1, 2
			bad := []string{paths[0], filepath.Join(dir, "absent.png")}
			out := filepath.Join(dir, "never2.pdf")
			So(errors.Is(plate.Compose(l, bad, out), plate.ErrReadImage), ShouldBeTrue)
			_, statErr := os.Stat(out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})
}
