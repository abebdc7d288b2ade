// Command pirplot turns the raw benchmark measurements of the PIR-over-
// Fabric evaluation into the paper's summary CSVs and grayscale figures.
//
// Usage: pirplot <verb> [options], see toplevelUsage for the verbs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/uuid"

	"github.com/okian/pirplot/internal/config"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/report/artifacts"
	"github.com/okian/pirplot/internal/report/blockws"
	"github.com/okian/pirplot/internal/report/composite"
	"github.com/okian/pirplot/internal/report/dockerstats"
	"github.com/okian/pirplot/internal/report/e2elatency"
	"github.com/okian/pirplot/internal/report/scalingutil"
	"github.com/okian/pirplot/internal/report/timings"
	"github.com/okian/pirplot/internal/report/txcosts"
	"github.com/okian/pirplot/pkg/logger"
	"github.com/okian/pirplot/pkg/metrics"
)

type verb struct {
	run  func(ctx context.Context, args []string, env *report.Env) error
	help string
}

var verbs = map[string]verb{
	"docker-stats":     {dockerstats.Run, "peer resource usage per chaincode function and channel"},
	"timings":          {timings.Run, "server-side chaincode execution times per channel"},
	"e2e-latency":      {e2elatency.Run, "end-to-end query latency broken down by stage"},
	"artifacts":        {artifacts.Run, "cryptographic artifact sizes per ring configuration"},
	"tx-costs":         {txcosts.Run, "bandwidth and runtime projections for PIRQuery batches"},
	"scaling-util":     {scalingutil.Run, "allocated-slot utilization per ring size"},
	"block-ws":         {blockws.Run, "block vs world-state size per channel"},
	"block-ws-stacked": {blockws.RunStacked, "block and world-state component breakdowns"},
	"composite":        {composite.Run, "compose rendered panels into a wide PDF plate"},
	"composite-column": {composite.RunColumn, "compose three panels into a column-width plate"},
	"composite-6":      {composite.RunSix, "compose six panels into a 2x3 plate"},
}

func toplevelUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pirplot <verb> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Verbs:")
	names := make([]string, 0, len(verbs))
	for name := range verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, verbs[name].help)
	}
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Run pirplot <verb> -h for the verb's options.")
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" || os.Args[1] == "-help" {
		toplevelUsage()
		os.Exit(2)
	}
	name := os.Args[1]
	v, ok := verbs[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "pirplot: unknown verb %q\n\n", name)
		toplevelUsage()
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	runID := uuid.NewString()
	env := &report.Env{
		Cfg:     cfg,
		Log:     logger.Named(name),
		Metrics: metrics.NewRun(name, runID),
	}
	env.Log.Debug(ctx, "starting", logger.String("run_id", runID))

	runErr := v.run(ctx, os.Args[2:], env)

	if err := env.Metrics.Flush(cfg.MetricsFile); err != nil {
		env.Log.Warn(ctx, "metrics flush failed", logger.Error(err))
	}
	if runErr != nil {
		env.Log.Error(ctx, "verb failed", logger.Error(runErr))
		os.Exit(1)
	}
}
