package table_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/pirplot/internal/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReadAndSchema(t *testing.T) {
	Convey("Given a CSV with padded headers", t, func() {
		in := " epoch ,CONTAINER,CPU %\n1,peer0,10%\n2,peer0,12%\n"
		tbl, err := table.Read(strings.NewReader(in))
		So(err, ShouldBeNil)

		Convey("Then headers are trimmed and addressable", func() {
			So(tbl.Header, ShouldResemble, []string{"epoch", "CONTAINER", "CPU %"})
			So(tbl.Col("epoch"), ShouldEqual, 0)
			So(tbl.Col("missing"), ShouldEqual, -1)
			So(len(tbl.Rows), ShouldEqual, 2)
		})

		Convey("Then Require names what is missing", func() {
			So(tbl.Require("epoch", "CPU %"), ShouldBeNil)
			err := tbl.Require("epoch", "MEM %", "NET I/O")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "MEM %")
			So(err.Error(), ShouldContainSubstring, "NET I/O")
		})

		Convey("Then RequireExactly rejects extra columns", func() {
			So(tbl.RequireExactly("CPU %", "epoch", "CONTAINER"), ShouldBeNil)
			So(errors.Is(tbl.RequireExactly("epoch", "CONTAINER"), table.ErrSchema), ShouldBeTrue)
			So(errors.Is(tbl.RequireExactly("epoch", "CONTAINER", "CPU %", "MEM %"), table.ErrSchema), ShouldBeTrue)
		})
	})

	Convey("Given an empty input", t, func() {
		_, err := table.Read(strings.NewReader(""))
		So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
	})
}

func TestFuzzyCol(t *testing.T) {
	Convey("Given headers with mixed case and spacing", t, func() {
		tbl, err := table.Read(strings.NewReader("Execution_Time_MS ,PIRQuery\n1,2\n"))
		So(err, ShouldBeNil)
		So(tbl.FuzzyCol("execution_time_ms"), ShouldEqual, 0)
		So(tbl.FuzzyCol("pirquery"), ShouldEqual, 1)
		So(tbl.FuzzyCol("pir query"), ShouldEqual, 1)
		So(tbl.FuzzyCol("latency"), ShouldEqual, -1)
	})
}

func TestFloatCoercion(t *testing.T) {
	Convey("Given assorted cells", t, func() {
		So(table.Float("3.5"), ShouldAlmostEqual, 3.5)
		So(table.Float(" 42 "), ShouldAlmostEqual, 42)
		So(math.IsNaN(table.Float("")), ShouldBeTrue)
		So(math.IsNaN(table.Float("oops")), ShouldBeTrue)
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	Convey("Given a summary with a missing cell", t, func() {
		path := filepath.Join(t.TempDir(), "out", "summary.csv")
		header := []string{"channel", "CPU_pct", "NET_KB"}
		rows := [][]string{
			{"13_64_128", table.FormatFloat(10.0), table.FormatFloat(math.NaN())},
			{"14_73_224", table.FormatFloat(12.5), table.FormatFloat(3.25)},
		}
		So(table.WriteFile(path, header, rows), ShouldBeNil)

		Convey("Then reloading reproduces the same values", func() {
			tbl, err := table.ReadFile(path)
			So(err, ShouldBeNil)
			So(tbl.Header, ShouldResemble, header)
			So(table.Float(table.Cell(tbl.Rows[0], 1)), ShouldAlmostEqual, 10.0)
			So(math.IsNaN(table.Float(table.Cell(tbl.Rows[0], 2))), ShouldBeTrue)
			So(table.Float(table.Cell(tbl.Rows[1], 2)), ShouldAlmostEqual, 3.25)
		})
	})

	Convey("Given a missing input file", t, func() {
		_, err := table.ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
		So(err, ShouldNotBeNil)
		var pe *os.PathError
		So(errors.As(err, &pe), ShouldBeTrue)
	})
}
