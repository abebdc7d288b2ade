package scalingutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pirplot/internal/config"
	"github.com/okian/pirplot/internal/report"
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
		Metrics: metrics.NewRun("scaling-util", "test"),
	}
}

const input = "logN,target_record_s,actual_record_s,n,N,utilization\n" +
	"13,128,126,64,8192,0.9\n" +
	"13,128,126,64,8192,0.7\n" +
	"14,224,222,73,16384,0.5\n" +
	"15,256,254,128,32768,0.96\n"

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, inputName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given several record sizes per ring", t, func() {
		path := writeInput(t, t.TempDir(), input)

		Convey("Then mean aggregates per ring", func() {
			util, err := Load(path, "mean")
			So(err, ShouldBeNil)
			So(util[13], ShouldAlmostEqual, 0.8, 1e-9)
			So(util[14], ShouldEqual, 0.5)
			So(util[15], ShouldEqual, 0.96)
		})

		Convey("Then median aggregates per ring", func() {
			util, err := Load(path, "median")
			So(err, ShouldBeNil)
			So(util[13], ShouldAlmostEqual, 0.8, 1e-9)
		})

		Convey("Then an unknown aggregate is rejected", func() {
			_, err := Load(path, "max")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a missing input file", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), inputName), "mean")
		So(err, ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a complete utilization input", t, func() {
		indir := t.TempDir()
		writeInput(t, indir, input)
		outdir := filepath.Join(indir, "figures")

		err := Run(context.Background(), []string{"-indir", indir, "-outdir", outdir, "-dpi", "72"}, testEnv(t))

		Convey("Then the stacked figure pair exists", func() {
			So(err, ShouldBeNil)
			for _, ext := range []string{".pdf", ".png"} {
				_, serr := os.Stat(filepath.Join(outdir, "scaling_util_utilization_stacked"+ext))
				So(serr, ShouldBeNil)
			}
		})
	})
}
