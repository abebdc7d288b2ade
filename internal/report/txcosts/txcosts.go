// Package txcosts joins the peer NET I/O summary with the chaincode timing
// summary and projects both to batches of PIRQuery transactions: total
// bandwidth and total server-side runtime for 100, 1000 and 10000 queries.
package txcosts

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"

	"github.com/okian/pirplot/internal/channel"
	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/stats"
	"github.com/okian/pirplot/internal/table"
)

// Counts are the projected batch sizes.
var Counts = []int{100, 1000, 10000}

// tierOrder fixes the series order of the panels.
var tierOrder = []string{"mini", "mid", "rich"}

// NetRow is one channel's mean PIRQuery NET I/O in KB per epoch.
type NetRow struct {
	Channel  string
	Friendly string
	NetKB    float64
}

// LoadNet reads the docker stats summary and reduces it to the peer's
// PIRQuery NET_KB per channel. The friendly column is recomputed from the
// channel id when the summary does not carry one.
func LoadNet(path string, labels map[string]string) ([]NetRow, error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("channel", "CONTAINER", "subset", "NET_KB"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	chIdx := t.Col("channel")
	contIdx := t.Col("CONTAINER")
	subIdx := t.Col("subset")
	netIdx := t.Col("NET_KB")
	friendlyIdx := t.Col("friendly")

	type key struct{ ch, friendly string }
	vals := make(map[key][]float64)
	var order []key
	for _, row := range t.Rows {
		if !strings.Contains(strings.ToLower(table.Cell(row, contIdx)), "peer") {
			continue
		}
		if !strings.EqualFold(table.Cell(row, subIdx), "pirquery") {
			continue
		}
		ch := table.Cell(row, chIdx)
		friendly := ""
		if friendlyIdx >= 0 {
			friendly = table.Cell(row, friendlyIdx)
		}
		if friendly == "" {
			friendly = channel.Friendly(ch, labels)
		}
		k := key{ch, friendly}
		if _, seen := vals[k]; !seen {
			order = append(order, k)
		}
		vals[k] = append(vals[k], table.Float(table.Cell(row, netIdx)))
	}

	rows := make([]NetRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, NetRow{Channel: k.ch, Friendly: k.friendly, NetKB: stats.Mean(vals[k])})
	}
	return rows, nil
}

// TimeRow is one channel's mean server-side PIRQuery execution time in ms.
type TimeRow struct {
	Channel  string
	Friendly string
	PIRMs    float64
}

// LoadTime reads the chaincode timings summary, locating the PIRQuery column
// tolerantly.
func LoadTime(path string, labels map[string]string) ([]TimeRow, error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("channel"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pirIdx := t.FuzzyCol("pirquery")
	if pirIdx < 0 {
		return nil, fmt.Errorf("%s: %w: missing PIRQuery column", path, table.ErrSchema)
	}
	chIdx := t.Col("channel")

	rows := make([]TimeRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		ch := table.Cell(row, chIdx)
		rows = append(rows, TimeRow{
			Channel:  ch,
			Friendly: channel.Friendly(ch, labels),
			PIRMs:    table.Float(table.Cell(row, pirIdx)),
		})
	}
	return rows, nil
}

// Projection is one (channel, batch size) cost estimate.
type Projection struct {
	Channel     string
	Friendly    string
	TxCount     int
	BandwidthMB float64
	RuntimeMin  float64
	MBPerTx     float64
	MsPerTx     float64
}

// Project inner-joins the two summaries per channel and scales the per-query
// costs to each batch size. NET_KB converts to decimal MB.
func Project(net []NetRow, times []TimeRow) []Projection {
	byChannel := make(map[string]TimeRow, len(times))
	for _, tr := range times {
		byChannel[tr.Channel] = tr
	}

	var out []Projection
	for _, n := range net {
		tr, ok := byChannel[n.Channel]
		if !ok || tr.Friendly != n.Friendly {
			continue
		}
		mbPerTx := n.NetKB / 1000
		minPerTx := tr.PIRMs / 1000 / 60
		for _, count := range Counts {
			out = append(out, Projection{
				Channel:     n.Channel,
				Friendly:    n.Friendly,
				TxCount:     count,
				BandwidthMB: mbPerTx * float64(count),
				RuntimeMin:  minPerTx * float64(count),
				MBPerTx:     mbPerTx,
				MsPerTx:     tr.PIRMs,
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ta, tb := tierRank(out[a].Friendly), tierRank(out[b].Friendly)
		if ta != tb {
			return ta < tb
		}
		return out[a].TxCount < out[b].TxCount
	})
	return out
}

func tierRank(friendly string) int {
	for i, t := range tierOrder {
		if t == friendly {
			return i
		}
	}
	return len(tierOrder)
}

var projectionHeader = []string{
	"channel", "friendly", "tx_count", "bandwidth_MB", "runtime_min", "MB_per_tx", "ms_per_tx",
}

// WriteProjection writes the batch projection CSV to outcsv.
func WriteProjection(proj []Projection, outcsv string) error {
	recs := make([][]string, 0, len(proj))
	for _, p := range proj {
		recs = append(recs, []string{
			p.Channel, p.Friendly, strconv.Itoa(p.TxCount),
			table.FormatFloat(p.BandwidthMB), table.FormatFloat(p.RuntimeMin),
			table.FormatFloat(p.MBPerTx), table.FormatFloat(p.MsPerTx),
		})
	}
	return table.WriteFile(outcsv, projectionHeader, recs)
}

// panelSeries builds the per-tier series of one metric across the batch
// sizes, averaging duplicate rows.
func panelSeries(proj []Projection, metric func(Projection) float64) []figure.Series {
	series := make([]figure.Series, 0, len(tierOrder))
	for _, tier := range tierOrder {
		vals := make([]float64, len(Counts))
		for j, count := range Counts {
			var vs []float64
			for _, p := range proj {
				if p.Friendly == tier && p.TxCount == count {
					vs = append(vs, metric(p))
				}
			}
			vals[j] = stats.Mean(vs)
		}
		series = append(series, figure.Series{Label: tier, Values: vals})
	}
	return series
}

func renderPlate(proj []Projection, base string, dpi int) (string, string, error) {
	cats := make([]string, len(Counts))
	for i, c := range Counts {
		cats[i] = strconv.Itoa(c)
	}

	left := figure.New("Peer NET I/O for batched PIRQuery", "Transactions", "Total bandwidth (MB)")
	if err := figure.GroupedBars(left, panelSeries(proj, func(p Projection) float64 { return p.BandwidthMB }),
		cats, figure.SeriesGrays3); err != nil {
		return "", "", err
	}

	right := figure.New("Server-side PIRQuery time for batches", "Transactions", "Total chaincode time (min)")
	if err := figure.GroupedBars(right, panelSeries(proj, func(p Projection) float64 { return p.RuntimeMin }),
		cats, figure.SeriesGrays3); err != nil {
		return "", "", err
	}
	// one legend is enough on a shared plate
	right.Legend = plot.New().Legend

	w, h := figure.DoubleColumn(0.40)
	return figure.SaveRow([]*plot.Plot{left, right}, w, h, base, dpi)
}

// Run implements the tx-costs verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("tx-costs", flag.ContinueOnError)
	netcsv := flags.String("netcsv", "", "docker stats summary CSV with NET_KB (required)")
	timings := flags.String("timings", "", "chaincode timings summary CSV with PIRQuery ms (required)")
	outdir := flags.String("outdir", filepath.Join("plots", "tx_costs", "figures"), "output directory for figures")
	outcsv := flags.String("outcsv", filepath.Join("plots", "tx_costs", "batch_projection.csv"),
		"output CSV for the projections")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *netcsv == "" || *timings == "" {
		return fmt.Errorf("tx-costs: -netcsv and -timings are required")
	}

	net, err := LoadNet(*netcsv, env.Cfg.Labels)
	if err != nil {
		return err
	}
	times, err := LoadTime(*timings, env.Cfg.Labels)
	if err != nil {
		return err
	}
	env.Metrics.AddRowsParsed(len(net) + len(times))

	proj := Project(net, times)
	if len(proj) == 0 {
		return ErrNoData
	}

	if err := WriteProjection(proj, *outcsv); err != nil {
		return err
	}
	env.NoteCSV(ctx, *outcsv)

	pdf, png, err := renderPlate(proj, filepath.Join(*outdir, "pirquery_batch_cost_bw"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}
