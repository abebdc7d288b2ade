package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRunCounters(t *testing.T) {
	Convey("Given a metrics run", t, func() {
		run := NewRun("docker-stats", "run-1")

		Convey("When counting parsed rows and missing cells", func() {
			run.AddRowsParsed(10)
			run.AddRowsParsed(0)
			run.AddRowsParsed(-3)
			run.AddCellsMissing(2)
			run.ArtifactWritten("csv")
			run.ArtifactWritten("pdf")
			run.ArtifactWritten("pdf")

			Convey("Then the registry should gather them", func() {
				mfs, err := run.Registry().Gather()
				So(err, ShouldBeNil)

				byName := map[string]float64{}
				for _, mf := range mfs {
					for _, m := range mf.GetMetric() {
						v := m.GetCounter().GetValue() + m.GetGauge().GetValue()
						byName[mf.GetName()] += v
					}
				}
				So(byName["pirplot_rows_parsed_total"], ShouldEqual, 10)
				So(byName["pirplot_cells_missing_total"], ShouldEqual, 2)
				So(byName["pirplot_artifacts_written_total"], ShouldEqual, 3)
			})
		})
	})
}

func TestRunFlush(t *testing.T) {
	Convey("Given a metrics run with some activity", t, func() {
		run := NewRun("timings", "run-2", WithNamespace("bench"))
		run.AddRowsParsed(5)

		Convey("When flushed to an empty path", func() {
			So(run.Flush(""), ShouldBeNil)
		})

		Convey("When flushed to a textfile path", func() {
			path := filepath.Join(t.TempDir(), "pirplot.prom")
			So(run.Flush(path), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			text := string(data)
			So(text, ShouldContainSubstring, "bench_rows_parsed_total")
			So(text, ShouldContainSubstring, `verb="timings"`)
			So(text, ShouldContainSubstring, `run_id="run-2"`)
			So(strings.Contains(text, "bench_run_duration_seconds"), ShouldBeTrue)
		})
	})
}
