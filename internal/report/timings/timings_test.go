package timings

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pirplot/internal/config"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/table"
	"github.com/okian/pirplot/pkg/logger"
	"github.com/okian/pirplot/pkg/metrics"
)

func testEnv(t *testing.T) *report.Env {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	return &report.Env{
		Cfg:     config.New(),
		Log:     logger.Get(),
		Metrics: metrics.NewRun("timings", "test"),
	}
}

func writeTiming(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMeanExecTime(t *testing.T) {
	Convey("Given a timing file with junk rows and a spaced header", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "t.csv")
		writeTiming(t, dir, "t.csv", "tx_id, Execution_Time_MS \na,10\nb,notanumber\nc,30\n")

		So(MeanExecTime(path), ShouldEqual, 20)
	})

	Convey("Given a file without the timing column", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "t.csv")
		writeTiming(t, dir, "t.csv", "tx_id,elapsed\na,10\n")

		So(math.IsNaN(MeanExecTime(path)), ShouldBeTrue)
	})

	Convey("Given a missing file", t, func() {
		So(math.IsNaN(MeanExecTime(filepath.Join(t.TempDir(), "nope.csv"))), ShouldBeTrue)
	})
}

func TestCollect(t *testing.T) {
	Convey("Given channels with mixed-case subset dirs and fallback files", t, func() {
		root := t.TempDir()
		writeTiming(t, filepath.Join(root, "13_64_128", "initLedger"),
			"InitLedger_server_timing.csv", "execution_time_ms\n5\n15\n")
		// case differs from the configured subset name
		writeTiming(t, filepath.Join(root, "13_64_128", "GetMetadata"),
			"GetMetadata_server_timing.csv", "execution_time_ms\n7\n")
		// only the auto-tuned variant exists
		writeTiming(t, filepath.Join(root, "13_64_128", "pirQuery"),
			"PIRQueryAuto_server_timing.csv", "execution_time_ms\n100\n200\n")
		writeTiming(t, filepath.Join(root, "15_128_256", "pirQuery"),
			"PIRQuery_server_timing.csv", "execution_time_ms\n400\n")

		rows, err := Collect(context.Background(), root, testEnv(t))

		Convey("Then each channel summarizes in ring order", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			So(rows[0].Channel, ShouldEqual, "13_64_128")
			So(rows[0].LogN, ShouldEqual, 13)
			So(rows[0].Means["InitLedger"], ShouldEqual, 10)
			So(rows[0].Means["GetMetadata"], ShouldEqual, 7)
			So(rows[0].Means["PIRQuery"], ShouldEqual, 150)

			So(rows[1].Channel, ShouldEqual, "15_128_256")
			So(math.IsNaN(rows[1].Means["InitLedger"]), ShouldBeTrue)
			So(rows[1].Means["PIRQuery"], ShouldEqual, 400)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given one complete channel", t, func() {
		root := t.TempDir()
		writeTiming(t, filepath.Join(root, "14_73_224", "initLedger"),
			"InitLedger_server_timing.csv", "execution_time_ms\n12\n")
		writeTiming(t, filepath.Join(root, "14_73_224", "getMetadata"),
			"GetMetadata_server_timing.csv", "execution_time_ms\n3\n")
		writeTiming(t, filepath.Join(root, "14_73_224", "pirQuery"),
			"PIRQuery_server_timing.csv", "execution_time_ms\n250\n")
		figdir := filepath.Join(root, "figures")

		err := Run(context.Background(), []string{"-root", root, "-figdir", figdir, "-dpi", "72"}, testEnv(t))

		Convey("Then the summary CSV and the chart pair exist", func() {
			So(err, ShouldBeNil)

			sum, rerr := table.ReadFile(filepath.Join(figdir, "chaincode_timings_summary.csv"))
			So(rerr, ShouldBeNil)
			So(sum.Header, ShouldResemble, summaryHeader)
			So(sum.Rows, ShouldHaveLength, 1)
			So(sum.Rows[0][sum.Col("channel")], ShouldEqual, "14_73_224")
			So(sum.Rows[0][sum.Col("PIRQuery")], ShouldEqual, "250")

			for _, ext := range []string{".pdf", ".png"} {
				_, serr := os.Stat(filepath.Join(figdir, "chaincode_timings_bw"+ext))
				So(serr, ShouldBeNil)
			}
		})
	})

	Convey("Given an empty root", t, func() {
		err := Run(context.Background(), []string{"-root", t.TempDir()}, testEnv(t))
		So(err, ShouldNotBeNil)
	})
}
