// Package e2elatency reduces the client-side per-epoch stage latencies of the
// ciphertext-times-plaintext query path to per-ring means and renders them as
// one stacked bar per ring size.
package e2elatency

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"gonum.org/v1/plot/plotter"

	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
)

// fileRe matches e2elatency_<logN>_<record_s>.csv.
var fileRe = regexp.MustCompile(`e2elatency_(\d+)_(\d+)\.csv$`)

// Stage keys in stack order (bottom-up) and their legend names. eval_ms falls
// back to eval_rtt_ms for runs that only recorded the round trip.
var (
	stageKeys  = []string{"keygen_ms", "enc_ms", "eval_ms", "dec_ms"}
	stageNames = []string{"KeyGen", "Enc", "Eval", "Dec"}
)

const evalFallback = "eval_rtt_ms"

// Series is one input file reduced to per-stage means and deviations.
type Series struct {
	LogN    int
	Records int
	Epochs  int
	Means   map[string]float64
	Stds    map[string]float64

	TotalMean float64
	TotalStd  float64
}

// LoadFile pivots one long-format latency file (epoch, stage, latency_ms)
// into per-stage series keyed by stage, ordered by epoch.
func LoadFile(path string) (perStage map[string][]float64, epochs int, err error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if err := t.RequireExactly("epoch", "stage", "latency_ms"); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	epochIdx := t.Col("epoch")
	stageIdx := t.Col("stage")
	valIdx := t.Col("latency_ms")

	type cell struct {
		epoch float64
		val   float64
	}
	byStage := make(map[string][]cell)
	seen := make(map[float64]bool)
	for _, row := range t.Rows {
		ep := table.Float(table.Cell(row, epochIdx))
		if math.IsNaN(ep) {
			continue
		}
		seen[ep] = true
		st := table.Cell(row, stageIdx)
		byStage[st] = append(byStage[st], cell{ep, table.Float(table.Cell(row, valIdx))})
	}

	perStage = make(map[string][]float64, len(byStage))
	for st, cells := range byStage {
		sort.SliceStable(cells, func(a, b int) bool { return cells[a].epoch < cells[b].epoch })
		vals := make([]float64, len(cells))
		for i, c := range cells {
			vals[i] = c.val
		}
		perStage[st] = vals
	}
	if _, ok := perStage["eval_ms"]; !ok {
		if rtt, ok := perStage[evalFallback]; ok {
			perStage["eval_ms"] = rtt
		}
	}
	return perStage, len(seen), nil
}

// Reduce collapses one pivoted file into stage means, sample deviations, the
// summed total mean, and the total deviation combined in quadrature.
func Reduce(logN, records int, perStage map[string][]float64, epochs int) Series {
	s := Series{
		LogN: logN, Records: records, Epochs: epochs,
		Means: make(map[string]float64, len(stageKeys)),
		Stds:  make(map[string]float64, len(stageKeys)),
	}
	var totalMean, totalVar float64
	for _, k := range stageKeys {
		m := stats.Mean(perStage[k])
		sd := stats.Std(perStage[k])
		s.Means[k] = m
		s.Stds[k] = sd
		if !math.IsNaN(m) {
			totalMean += m
		}
		if !math.IsNaN(sd) {
			totalVar += sd * sd
		}
	}
	s.TotalMean = totalMean
	s.TotalStd = math.Sqrt(totalVar)
	return s
}

// Collect loads every e2elatency_<logN>_<record_s>.csv under indir, sorted
// by ring exponent then record size.
func Collect(ctx context.Context, indir string, env *report.Env) ([]Series, error) {
	paths, err := filepath.Glob(filepath.Join(indir, "e2elatency_*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []Series
	for _, path := range paths {
		m := fileRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		logN, _ := strconv.Atoi(m[1])
		records, _ := strconv.Atoi(m[2])
		perStage, epochs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		env.Metrics.AddRowsParsed(epochs)
		out = append(out, Reduce(logN, records, perStage, epochs))
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].LogN != out[b].LogN {
			return out[a].LogN < out[b].LogN
		}
		return out[a].Records < out[b].Records
	})
	return out, nil
}

func summaryHeader() []string {
	h := []string{"logN", "record_s"}
	for _, k := range stageKeys {
		h = append(h, "mean_"+k)
	}
	for _, k := range stageKeys {
		h = append(h, "std_"+k)
	}
	return append(h, "total_mean_ms", "total_std_ms", "epochs")
}

// WriteSummary writes the per-ring stage summary CSV under outdir.
func WriteSummary(series []Series, outdir string) (string, error) {
	out := filepath.Join(outdir, "e2e_latency_summary.csv")
	recs := make([][]string, 0, len(series))
	for _, s := range series {
		rec := []string{strconv.Itoa(s.LogN), strconv.Itoa(s.Records)}
		for _, k := range stageKeys {
			rec = append(rec, table.FormatFloat(s.Means[k]))
		}
		for _, k := range stageKeys {
			rec = append(rec, table.FormatFloat(s.Stds[k]))
		}
		rec = append(rec,
			table.FormatFloat(s.TotalMean),
			table.FormatFloat(s.TotalStd),
			strconv.Itoa(s.Epochs))
		recs = append(recs, rec)
	}
	if err := table.WriteFile(out, summaryHeader(), recs); err != nil {
		return "", err
	}
	return out, nil
}

func render(series []Series, base string, dpi int) (string, string, error) {
	cats := make([]string, len(series))
	for i, s := range series {
		cats[i] = fmt.Sprintf("2^%d", s.LogN)
	}
	bars := make([]figure.Series, len(stageKeys))
	for i, k := range stageKeys {
		vals := make([]float64, len(series))
		for j, s := range series {
			vals[j] = s.Means[k]
		}
		bars[i] = figure.Series{Label: stageNames[i], Values: vals}
	}

	p := figure.New("End-to-end single-query latency by stage (ct×pt)",
		"Ring size N", "Latency per query (ms)")
	if err := figure.StackedBars(p, bars, cats, figure.StackGrays4); err != nil {
		return "", "", err
	}
	// Fixed range keeps the three rings comparable across papers.
	p.Y.Min = 0
	p.Y.Max = 200

	var xys plotter.XYs
	var texts []string
	for i, s := range series {
		if math.IsNaN(s.TotalMean) {
			continue
		}
		top := 0.0
		for _, k := range stageKeys {
			if !math.IsNaN(s.Means[k]) {
				top += s.Means[k]
			}
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: top + 2})
		texts = append(texts, fmt.Sprintf("%.1f", s.TotalMean))
	}
	if len(xys) > 0 {
		if err := figure.AddLabels(p, xys, texts, color.Black); err != nil {
			return "", "", err
		}
	}

	w, h := figure.SingleColumn(0.7)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the e2e-latency verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("e2e-latency", flag.ContinueOnError)
	indir := flags.String("indir", "data", "input directory with e2elatency_*.csv files")
	outdir := flags.String("outdir", "figures", "output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	if err := flags.Parse(args); err != nil {
		return err
	}

	series, err := Collect(ctx, *indir, env)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("%w: in %s", ErrNoData, *indir)
	}

	csvPath, err := WriteSummary(series, *outdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)

	pdf, png, err := render(series, filepath.Join(*outdir, "e2e_latency_stacked"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}
