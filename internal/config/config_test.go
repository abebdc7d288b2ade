package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pirplot/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given defaults", t, func() {
		cfg := config.New()

		Convey("Then tier labels and knobs should be populated", func() {
			So(cfg.DPI, ShouldEqual, 300)
			So(cfg.PeerFilter, ShouldEqual, "peer0")
			So(cfg.Labels["13_64_128"], ShouldEqual, "mini")
			So(cfg.Labels["14_73_224"], ShouldEqual, "mid")
			So(cfg.Labels["15_128_256"], ShouldEqual, "rich")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		t.Setenv("PIRPLOT_CONFIG", "")

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.DPI, ShouldEqual, 300)
			So(cfg.LogLevel, ShouldEqual, "info")
		})

		Convey("When the environment overrides a knob", func() {
			t.Setenv("PIRPLOT_PEER_FILTER", "peer1")
			t.Setenv("PIRPLOT_LOG_LEVEL", "debug")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.PeerFilter, ShouldEqual, "peer1")
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("When a YAML file overrides a knob", func() {
			path := filepath.Join(t.TempDir(), "pirplot.yaml")
			So(os.WriteFile(path, []byte("dpi: 150\nmetrics_file: /tmp/pirplot.prom\n"), 0o600), ShouldBeNil)
			t.Setenv("PIRPLOT_CONFIG", path)

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.DPI, ShouldEqual, 150)
			So(cfg.MetricsFile, ShouldEqual, "/tmp/pirplot.prom")
		})

		Convey("When the file sets an invalid DPI", func() {
			path := filepath.Join(t.TempDir(), "pirplot.yaml")
			So(os.WriteFile(path, []byte("dpi: -1\n"), 0o600), ShouldBeNil)
			t.Setenv("PIRPLOT_CONFIG", path)

			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
