package main

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVerbTable(t *testing.T) {
	Convey("Given the verb table", t, func() {
		Convey("Then every documented verb is wired", func() {
			for _, name := range []string{
				"docker-stats", "timings", "e2e-latency", "artifacts",
				"tx-costs", "scaling-util", "block-ws", "block-ws-stacked",
				"composite", "composite-column", "composite-6",
			} {
				v, ok := verbs[name]
				So(ok, ShouldBeTrue)
				So(v.run, ShouldNotBeNil)
				So(v.help, ShouldNotBeEmpty)
			}
		})
	})
}
