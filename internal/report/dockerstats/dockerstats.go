// Package dockerstats aggregates per-epoch docker stats snapshots captured
// while each chaincode function ran, reduces them to per-function resource
// summaries for the ledger peer, and renders the four grouped bar charts.
package dockerstats

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/pirplot/internal/channel"
	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
	"github.com/okian/pirplot/internal/units"
	"github.com/okian/pirplot/pkg/logger"
)

const statsFile = "docker_stats.csv"

// Functions lists the chaincode invocation subsets in chart order: the
// directory the harness wrote under each channel, and the legend label.
var Functions = []struct{ Dir, Label string }{
	{"initLedger", "InitLedger"},
	{"getMetadata", "GetMetadata"},
	{"pirQuery", "PIRQuery"},
}

// Snapshot is one normalized docker stats row. NET and BLK snapshots are
// cumulative counters; the delta fields hold the per-epoch differences once
// ComputeDeltas has run, NaN before that.
type Snapshot struct {
	Epoch     float64
	Container string
	Function  string

	CPUPct    float64
	MemPct    float64
	MemUsageB float64
	MemLimitB float64
	NetInB    float64
	NetOutB   float64
	BlkInB    float64
	BlkOutB   float64

	NetInDelta  float64
	NetOutDelta float64
	BlkInDelta  float64
	BlkOutDelta float64
}

var requiredCols = []string{
	"epoch", "CONTAINER", "CPU %", "MEM USAGE / LIMIT", "MEM %", "NET I/O", "BLOCK I/O",
}

// LoadFile reads one docker_stats.csv and normalizes it: percent columns
// stripped, paired byte columns split, rows without an epoch or container
// dropped. missing counts unparseable numeric cells.
func LoadFile(path, function string) (snaps []Snapshot, missing int, err error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if err := t.Require(requiredCols...); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	epochIdx := t.Col("epoch")
	contIdx := t.Col("CONTAINER")
	cpuIdx := t.Col("CPU %")
	memPairIdx := t.Col("MEM USAGE / LIMIT")
	memPctIdx := t.Col("MEM %")
	netIdx := t.Col("NET I/O")
	blkIdx := t.Col("BLOCK I/O")

	for _, row := range t.Rows {
		epoch := table.Float(table.Cell(row, epochIdx))
		cont := strings.TrimSpace(table.Cell(row, contIdx))
		if math.IsNaN(epoch) || cont == "" {
			missing++
			continue
		}
		s := Snapshot{
			Epoch:     epoch,
			Container: cont,
			Function:  function,
			CPUPct:    units.ParsePercent(table.Cell(row, cpuIdx)),
			MemPct:    units.ParsePercent(table.Cell(row, memPctIdx)),

			NetInDelta:  math.NaN(),
			NetOutDelta: math.NaN(),
			BlkInDelta:  math.NaN(),
			BlkOutDelta: math.NaN(),
		}
		s.MemUsageB, s.MemLimitB = units.ParsePair(table.Cell(row, memPairIdx))
		s.NetInB, s.NetOutB = units.ParsePair(table.Cell(row, netIdx))
		s.BlkInB, s.BlkOutB = units.ParsePair(table.Cell(row, blkIdx))
		for _, v := range []float64{s.CPUPct, s.MemPct, s.MemUsageB, s.NetInB, s.BlkInB} {
			if math.IsNaN(v) {
				missing++
			}
		}
		snaps = append(snaps, s)
	}
	return snaps, missing, nil
}

// LoadChannel gathers the snapshots of every function subset recorded under
// one channel directory. Missing or unreadable subset files are skipped so a
// partial benchmark run still summarizes.
func LoadChannel(ctx context.Context, ch channel.Channel, env *report.Env) []Snapshot {
	var all []Snapshot
	for _, fn := range Functions {
		path := filepath.Join(ch.Path, fn.Dir, statsFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		snaps, missing, err := LoadFile(path, fn.Label)
		if err != nil {
			env.Log.Warn(ctx, "skipping unreadable stats file", logger.Path(path), logger.Error(err))
			continue
		}
		env.Metrics.AddRowsParsed(len(snaps))
		env.Metrics.AddCellsMissing(missing)
		all = append(all, snaps...)
	}
	return all
}

type groupKey struct {
	container string
	function  string
}

// ComputeDeltas converts the cumulative NET and BLK counters into per-epoch
// deltas within each (container, function) group, ordered by epoch. Counter
// resets (a decrease) become NaN rather than a negative delta. Rows where all
// four deltas are missing, which includes each group's first row, are dropped.
func ComputeDeltas(snaps []Snapshot) []Snapshot {
	groups := make(map[groupKey][]int)
	var order []groupKey
	for i, s := range snaps {
		k := groupKey{s.Container, s.Function}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var out []Snapshot
	for _, k := range order {
		idxs := groups[k]
		sort.SliceStable(idxs, func(a, b int) bool {
			return snaps[idxs[a]].Epoch < snaps[idxs[b]].Epoch
		})
		netIn := make([]float64, len(idxs))
		netOut := make([]float64, len(idxs))
		blkIn := make([]float64, len(idxs))
		blkOut := make([]float64, len(idxs))
		for j, i := range idxs {
			netIn[j] = snaps[i].NetInB
			netOut[j] = snaps[i].NetOutB
			blkIn[j] = snaps[i].BlkInB
			blkOut[j] = snaps[i].BlkOutB
		}
		dNetIn := stats.Deltas(netIn)
		dNetOut := stats.Deltas(netOut)
		dBlkIn := stats.Deltas(blkIn)
		dBlkOut := stats.Deltas(blkOut)
		for j, i := range idxs {
			if math.IsNaN(dNetIn[j]) && math.IsNaN(dNetOut[j]) &&
				math.IsNaN(dBlkIn[j]) && math.IsNaN(dBlkOut[j]) {
				continue
			}
			s := snaps[i]
			s.NetInDelta = dNetIn[j]
			s.NetOutDelta = dNetOut[j]
			s.BlkInDelta = dBlkIn[j]
			s.BlkOutDelta = dBlkOut[j]
			out = append(out, s)
		}
	}
	return out
}

// Row is one line of the per-function summary for a channel.
type Row struct {
	Channel   string
	Friendly  string
	Function  string
	Container string
	CPUPct    float64
	MemPct    float64
	NetKB     float64
	BlkKB     float64
}

// Summarize filters the channel's snapshots to containers matching the peer
// filter and reduces them per function: mean CPU and memory percentages over
// the raw snapshots, mean combined in+out I/O deltas in KB per epoch.
func Summarize(ch channel.Channel, snaps []Snapshot, peerFilter string, labels map[string]string) []Row {
	needle := strings.ToLower(peerFilter)
	var peer []Snapshot
	for _, s := range snaps {
		if strings.Contains(strings.ToLower(s.Container), needle) {
			peer = append(peer, s)
		}
	}
	if len(peer) == 0 {
		return nil
	}
	deltas := ComputeDeltas(peer)

	var rows []Row
	for _, fn := range Functions {
		var cpu, mem []float64
		for _, s := range peer {
			if s.Function == fn.Label {
				cpu = append(cpu, s.CPUPct)
				mem = append(mem, s.MemPct)
			}
		}
		if len(cpu) == 0 {
			continue
		}
		var netSums, blkSums []float64
		for _, s := range deltas {
			if s.Function != fn.Label {
				continue
			}
			netSums = append(netSums, fillZero(s.NetInDelta)+fillZero(s.NetOutDelta))
			blkSums = append(blkSums, fillZero(s.BlkInDelta)+fillZero(s.BlkOutDelta))
		}
		rows = append(rows, Row{
			Channel:   ch.ID,
			Friendly:  channel.Friendly(ch.ID, labels),
			Function:  fn.Label,
			Container: peerFilter,
			CPUPct:    stats.Mean(cpu),
			MemPct:    stats.Mean(mem),
			NetKB:     stats.Mean(netSums) / 1024,
			BlkKB:     stats.Mean(blkSums) / 1024,
		})
	}
	return rows
}

func fillZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

var summaryHeader = []string{
	"channel", "friendly", "subset", "CONTAINER", "CPU_pct", "MEM_pct", "NET_KB", "BLK_KB",
}

// WriteSummary writes the per-function summary CSV under figdir and returns
// its path. Missing values render as empty cells.
func WriteSummary(rows []Row, figdir string) (string, error) {
	out := filepath.Join(figdir, "docker_stats_peer0_by_function_summary.csv")
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, []string{
			r.Channel, r.Friendly, r.Function, r.Container,
			table.FormatFloat(r.CPUPct), table.FormatFloat(r.MemPct),
			table.FormatFloat(r.NetKB), table.FormatFloat(r.BlkKB),
		})
	}
	if err := table.WriteFile(out, summaryHeader, recs); err != nil {
		return "", err
	}
	return out, nil
}

// channelOrder returns the distinct friendly labels in row order, which is
// the ring-exponent order the channels were discovered in.
func channelOrder(rows []Row) []string {
	var cats []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Friendly] {
			seen[r.Friendly] = true
			cats = append(cats, r.Friendly)
		}
	}
	return cats
}

// metricSeries builds the function-by-channel value matrix for one metric.
func metricSeries(rows []Row, cats []string, metric func(Row) float64) []figure.Series {
	series := make([]figure.Series, 0, len(Functions))
	for _, fn := range Functions {
		vals := make([]float64, len(cats))
		for j, cat := range cats {
			vals[j] = math.NaN()
			for _, r := range rows {
				if r.Friendly == cat && r.Function == fn.Label {
					vals[j] = metric(r)
					break
				}
			}
		}
		series = append(series, figure.Series{Label: fn.Label, Values: vals})
	}
	return series
}

func renderMetric(rows []Row, cats []string, metric func(Row) float64,
	title, ylabel, base string, dpi int) (string, string, error) {
	p := figure.New(title, "Channel (mini, mid, rich)", ylabel)
	if err := figure.GroupedBars(p, metricSeries(rows, cats, metric), cats, figure.SeriesGrays3); err != nil {
		return "", "", err
	}
	w, h := figure.SingleColumn(0.80)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the docker-stats verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("docker-stats", flag.ContinueOnError)
	root := flags.String("root", ".", "directory holding the channel dirs (e.g. 13_64_128/)")
	figdir := flags.String("figdir", filepath.Join("plots", "docker_stats", "figures"),
		"output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	peer := flags.String("peer", env.Cfg.PeerFilter, "container substring to aggregate")
	if err := flags.Parse(args); err != nil {
		return err
	}

	chans, err := channel.Discover(*root)
	if err != nil {
		return err
	}

	var rows []Row
	for _, ch := range chans {
		snaps := LoadChannel(ctx, ch, env)
		if len(snaps) == 0 {
			continue
		}
		rows = append(rows, Summarize(ch, snaps, *peer, env.Cfg.Labels)...)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: under %s", ErrNoData, *root)
	}

	csvPath, err := WriteSummary(rows, *figdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)

	cats := channelOrder(rows)
	charts := []struct {
		metric func(Row) float64
		title  string
		ylabel string
		name   string
	}{
		{func(r Row) float64 { return r.CPUPct }, "peer0 CPU usage by function/channel (avg)", "CPU (%)", "peer0_cpu_by_func_bw"},
		{func(r Row) float64 { return r.MemPct }, "peer0 Memory usage by function/channel (avg)", "Memory (%)", "peer0_mem_by_func_bw"},
		{func(r Row) float64 { return r.NetKB }, "peer0 Network I/O per epoch (avg delta)", "KB / epoch", "peer0_net_by_func_bw"},
		{func(r Row) float64 { return r.BlkKB }, "peer0 Block I/O per epoch (avg delta)", "KB / epoch", "peer0_blk_by_func_bw"},
	}
	for _, c := range charts {
		pdf, png, err := renderMetric(rows, cats, c.metric, c.title, c.ylabel,
			filepath.Join(*figdir, c.name), *dpi)
		if err != nil {
			return err
		}
		env.NoteFigure(ctx, pdf, png)
	}
	return nil
}
