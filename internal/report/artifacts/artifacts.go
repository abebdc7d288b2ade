// Package artifacts compares the on-disk sizes of the cryptographic
// artifacts (keys, query and response ciphertexts, encoded database,
// metadata) across ring configurations.
package artifacts

import (
	"context"
	"flag"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
)

// fileRe matches artifacts_<logN>_<record_s>.csv.
var fileRe = regexp.MustCompile(`artifacts_(\d+)_(\d+)\.csv$`)

// Names lists the measured artifacts in chart order.
var Names = []string{"pk", "sk", "ct_q", "ct_r", "m_DB", "metadata_json"}

// unitScale maps the output unit flag to a bytes multiplier.
var unitScale = map[string]float64{
	"bytes": 1,
	"KB":    1.0 / 1024,
	"MB":    1.0 / (1024 * 1024),
}

// Row is one input file: artifact name to size in bytes.
type Row struct {
	LogN    int
	Records int
	Sizes   map[string]float64
}

// LoadFile reads one artifacts CSV (artifact, bytes). Artifacts the file
// does not list read as missing.
func LoadFile(path string) (map[string]float64, error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.RequireExactly("artifact", "bytes"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	nameIdx := t.Col("artifact")
	bytesIdx := t.Col("bytes")

	byName := make(map[string]float64, len(t.Rows))
	for _, row := range t.Rows {
		name := table.Cell(row, nameIdx)
		if _, seen := byName[name]; seen {
			continue
		}
		byName[name] = table.Float(table.Cell(row, bytesIdx))
	}
	sizes := make(map[string]float64, len(Names))
	for _, a := range Names {
		v, ok := byName[a]
		if !ok {
			v = math.NaN()
		}
		sizes[a] = v
	}
	return sizes, nil
}

// Collect loads every artifacts_<logN>_<record_s>.csv under dir, sorted by
// ring exponent then record size.
func Collect(ctx context.Context, dir string, env *report.Env) ([]Row, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "artifacts_*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var rows []Row
	for _, path := range paths {
		m := fileRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		logN, _ := strconv.Atoi(m[1])
		records, _ := strconv.Atoi(m[2])
		sizes, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		env.Metrics.AddRowsParsed(len(sizes))
		rows = append(rows, Row{LogN: logN, Records: records, Sizes: sizes})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].LogN != rows[b].LogN {
			return rows[a].LogN < rows[b].LogN
		}
		return rows[a].Records < rows[b].Records
	})
	return rows, nil
}

// Group scales the sizes to the requested unit and averages rows sharing a
// ring exponent, returning the exponent order alongside the means.
func Group(rows []Row, unit string) (logNs []int, means map[int]map[string]float64, err error) {
	scale, ok := unitScale[unit]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadUnit, unit)
	}
	byLogN := make(map[int][]Row)
	for _, r := range rows {
		if _, seen := byLogN[r.LogN]; !seen {
			logNs = append(logNs, r.LogN)
		}
		byLogN[r.LogN] = append(byLogN[r.LogN], r)
	}
	sort.Ints(logNs)

	means = make(map[int]map[string]float64, len(logNs))
	for _, logN := range logNs {
		m := make(map[string]float64, len(Names))
		for _, a := range Names {
			var vals []float64
			for _, r := range byLogN[logN] {
				vals = append(vals, r.Sizes[a]*scale)
			}
			m[a] = stats.Mean(vals)
		}
		means[logN] = m
	}
	return logNs, means, nil
}

// WriteSummary writes the grouped means CSV under figdir.
func WriteSummary(logNs []int, means map[int]map[string]float64, figdir string) (string, error) {
	out := filepath.Join(figdir, "artifacts_sizes_summary.csv")
	header := append([]string{"logN"}, Names...)
	recs := make([][]string, 0, len(logNs))
	for _, logN := range logNs {
		rec := []string{strconv.Itoa(logN)}
		for _, a := range Names {
			rec = append(rec, table.FormatFloat(means[logN][a]))
		}
		recs = append(recs, rec)
	}
	if err := table.WriteFile(out, header, recs); err != nil {
		return "", err
	}
	return out, nil
}

func render(logNs []int, means map[int]map[string]float64, unit, base string, dpi int) (string, string, error) {
	cats := make([]string, len(logNs))
	for i, logN := range logNs {
		cats[i] = fmt.Sprintf("2^%d", logN)
	}
	series := make([]figure.Series, len(Names))
	for i, a := range Names {
		vals := make([]float64, len(logNs))
		for j, logN := range logNs {
			vals[j] = means[logN][a]
		}
		series[i] = figure.Series{Label: a, Values: vals}
	}

	p := figure.New("Artifacts size by ring configuration", "Ring size N", "Size ("+unit+")")
	if err := figure.GroupedBars(p, series, cats, figure.SeriesGrays6); err != nil {
		return "", "", err
	}
	w, h := figure.SingleColumn(0.80)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the artifacts verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("artifacts", flag.ContinueOnError)
	data := flags.String("data", filepath.Join("plots", "artifacts_size", "data"), "input CSV directory")
	figdir := flags.String("figdir", filepath.Join("plots", "artifacts_size", "figures"),
		"output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	unit := flags.String("unit", "KB", "output unit: bytes, KB or MB")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rows, err := Collect(ctx, *data, env)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: in %s", ErrNoData, *data)
	}

	logNs, means, err := Group(rows, *unit)
	if err != nil {
		return err
	}

	pdf, png, err := render(logNs, means, *unit, filepath.Join(*figdir, "artifacts_sizes"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)

	csvPath, err := WriteSummary(logNs, means, *figdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)
	return nil
}
