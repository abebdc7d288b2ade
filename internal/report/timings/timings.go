// Package timings reduces the server-side chaincode timing CSVs to one mean
// execution time per function per channel and renders the grouped bar chart.
package timings

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/okian/pirplot/internal/channel"
	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
	"github.com/okian/pirplot/pkg/logger"
)

// Functions lists the chaincode functions in chart order. Each names the
// subset directory and, in preference order, the timing files the harness
// may have produced there. PIRQuery runs sometimes use the auto-tuned
// variant, hence the second candidate.
var Functions = []struct {
	Label      string
	Dir        string
	Candidates []string
}{
	{"InitLedger", "initLedger", []string{"InitLedger_server_timing.csv"}},
	{"GetMetadata", "getMetadata", []string{"GetMetadata_server_timing.csv"}},
	{"PIRQuery", "pirQuery", []string{"PIRQuery_server_timing.csv", "PIRQueryAuto_server_timing.csv"}},
}

// Row is one channel's timing summary.
type Row struct {
	Channel string
	LogN    int
	N       int
	Records int
	Means   map[string]float64 // function label to mean execution time in ms
}

// MeanExecTime averages the execution_time_ms column of one timing file,
// tolerating header case and whitespace. Unreadable files and files without
// the column read as missing.
func MeanExecTime(path string) float64 {
	t, err := table.ReadFile(path)
	if err != nil {
		return math.NaN()
	}
	idx := t.FuzzyCol("execution_time_ms")
	if idx < 0 {
		return math.NaN()
	}
	vals := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		vals = append(vals, table.Float(table.Cell(row, idx)))
	}
	return stats.Mean(vals)
}

// meanFirstExisting tries the candidate files in order and returns the first
// mean that resolves to a number.
func meanFirstExisting(dir string, candidates []string) float64 {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if v := MeanExecTime(path); !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

// Collect walks the channel directories under root and builds one summary
// row per channel, in ring-exponent order. Subset directories are matched
// case-insensitively; anything missing reads as NaN.
func Collect(ctx context.Context, root string, env *report.Env) ([]Row, error) {
	chans, err := channel.Discover(root)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(chans))
	for _, ch := range chans {
		r := Row{
			Channel: ch.ID, LogN: ch.LogN, N: ch.N, Records: ch.Records,
			Means: make(map[string]float64, len(Functions)),
		}
		for _, fn := range Functions {
			dir := channel.FindSubdir(ch.Path, fn.Dir)
			if dir == "" {
				r.Means[fn.Label] = math.NaN()
				env.Metrics.AddCellsMissing(1)
				continue
			}
			v := meanFirstExisting(dir, fn.Candidates)
			if math.IsNaN(v) {
				env.Log.Warn(ctx, "no usable timing file",
					logger.String("channel", ch.ID), logger.String("function", fn.Label))
				env.Metrics.AddCellsMissing(1)
			} else {
				env.Metrics.AddRowsParsed(1)
			}
			r.Means[fn.Label] = v
		}
		rows = append(rows, r)
	}
	return rows, nil
}

var summaryHeader = []string{"channel", "logN", "n", "record_s", "InitLedger", "GetMetadata", "PIRQuery"}

// WriteSummary writes the timing summary CSV under figdir.
func WriteSummary(rows []Row, figdir string) (string, error) {
	out := filepath.Join(figdir, "chaincode_timings_summary.csv")
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{
			r.Channel,
			fmt.Sprint(r.LogN), fmt.Sprint(r.N), fmt.Sprint(r.Records),
		}
		for _, fn := range Functions {
			rec = append(rec, table.FormatFloat(r.Means[fn.Label]))
		}
		recs = append(recs, rec)
	}
	if err := table.WriteFile(out, summaryHeader, recs); err != nil {
		return "", err
	}
	return out, nil
}

func render(rows []Row, labels map[string]string, base string, dpi int) (string, string, error) {
	cats := make([]string, len(rows))
	for i, r := range rows {
		cats[i] = channel.Friendly(r.Channel, labels)
	}
	series := make([]figure.Series, 0, len(Functions))
	for _, fn := range Functions {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = r.Means[fn.Label]
		}
		series = append(series, figure.Series{Label: fn.Label, Values: vals})
	}
	p := figure.New("Execution time of chaincode functions per channel (server-side avg)",
		"Channel (mini, mid, rich)", "Execution time (ms)")
	if err := figure.GroupedBars(p, series, cats, figure.SeriesGrays3); err != nil {
		return "", "", err
	}
	w, h := figure.SingleColumn(0.8)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the timings verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("timings", flag.ContinueOnError)
	root := flags.String("root", ".", "directory holding the channel dirs")
	figdir := flags.String("figdir", "figures", "output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rows, err := Collect(ctx, *root, env)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: under %s", ErrNoData, *root)
	}

	csvPath, err := WriteSummary(rows, *figdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)

	pdf, png, err := render(rows, env.Cfg.Labels, filepath.Join(*figdir, "chaincode_timings_bw"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}
