package figure_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pirplot/internal/figure"
)

func TestGroupedBars(t *testing.T) {
	Convey("Given a styled plot", t, func() {
		p := figure.New("CPU usage", "Channel (mini, mid, rich)", "CPU (%)")

		Convey("When the series match the categories", func() {
			series := []figure.Series{
				{Label: "InitLedger", Values: []float64{10, 12, 14}},
				{Label: "GetMetadata", Values: []float64{1, 2, math.NaN()}},
				{Label: "PIRQuery", Values: []float64{30, 45, 70}},
			}
			err := figure.GroupedBars(p, series, []string{"mini", "mid", "rich"}, figure.SeriesGrays3)
			So(err, ShouldBeNil)

			Convey("Then Save writes both a PDF and a PNG", func() {
				base := filepath.Join(t.TempDir(), "figures", "cpu_bw")
				w, h := figure.SingleColumn(0.80)
				pdfPath, pngPath, err := figure.Save(p, w, h, base, 150)
				So(err, ShouldBeNil)

				for _, path := range []string{pdfPath, pngPath} {
					info, statErr := os.Stat(path)
					So(statErr, ShouldBeNil)
					So(info.Size(), ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When a series has the wrong length", func() {
			series := []figure.Series{{Label: "short", Values: []float64{1}}}
			err := figure.GroupedBars(p, series, []string{"mini", "mid"}, figure.SeriesGrays3)
			So(errors.Is(err, figure.ErrSeriesShape), ShouldBeTrue)
		})

		Convey("When there are no series", func() {
			err := figure.GroupedBars(p, nil, []string{"mini"}, figure.SeriesGrays3)
			So(errors.Is(err, figure.ErrEmptyChart), ShouldBeTrue)
		})
	})
}

func TestStackedBars(t *testing.T) {
	Convey("Given stage series", t, func() {
		p := figure.New("Latency by stage", "Ring size N", "Latency per query (ms)")
		series := []figure.Series{
			{Label: "KeyGen", Values: []float64{5, 9, 17}},
			{Label: "Enc", Values: []float64{12, 20, 41}},
			{Label: "Eval", Values: []float64{math.NaN(), 30, 60}},
			{Label: "Dec", Values: []float64{8, 12, 25}},
		}
		So(figure.StackedBars(p, series, []string{"2^13", "2^14", "2^15"}, figure.StackGrays4), ShouldBeNil)

		Convey("And total annotations can be added", func() {
			xys := plotter.XYs{{X: 0, Y: 25}, {X: 1, Y: 71}, {X: 2, Y: 143}}
			So(figure.AddLabels(p, xys, []string{"25.0", "71.0", "143.0"}, nil), ShouldBeNil)

			base := filepath.Join(t.TempDir(), "stacked_bw")
			w, h := figure.SingleColumn(0.70)
			_, _, err := figure.Save(p, w, h, base, 96)
			So(err, ShouldBeNil)
		})

		Convey("And mismatched labels are rejected", func() {
			err := figure.AddLabels(p, plotter.XYs{{X: 0, Y: 1}}, []string{"a", "b"}, nil)
			So(errors.Is(err, figure.ErrSeriesShape), ShouldBeTrue)
		})
	})
}

func TestSaveRow(t *testing.T) {
	Convey("Given two panels", t, func() {
		left := figure.New("Peer NET I/O for batched PIRQuery", "Transactions", "Total bandwidth (MB)")
		right := figure.New("Server-side PIRQuery time for batches", "Transactions", "Total chaincode time (min)")
		series := []figure.Series{
			{Label: "mini", Values: []float64{1, 10, 100}},
			{Label: "mid", Values: []float64{2, 20, 200}},
			{Label: "rich", Values: []float64{4, 40, 400}},
		}
		counts := []string{"100", "1000", "10000"}
		So(figure.GroupedBars(left, series, counts, figure.SeriesGrays3), ShouldBeNil)
		So(figure.GroupedBars(right, series, counts, figure.SeriesGrays3), ShouldBeNil)

		Convey("Then SaveRow writes one two-panel plate", func() {
			base := filepath.Join(t.TempDir(), "plate")
			w, h := figure.DoubleColumn(0.40)
			pdfPath, pngPath, err := figure.SaveRow([]*plot.Plot{left, right}, w, h, base, 96)
			So(err, ShouldBeNil)
			So(pdfPath, ShouldEndWith, ".pdf")
			So(pngPath, ShouldEndWith, ".png")
			_, statErr := os.Stat(pdfPath)
			So(statErr, ShouldBeNil)
		})
	})
}
