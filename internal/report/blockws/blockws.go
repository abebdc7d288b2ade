// Package blockws compares the on-chain footprint of each channel: the block
// holding the init writes versus the world-state LevelDB directory, both as
// absolute sizes and as a stacked component breakdown.
//
// The measurements were taken by hand on the deployed network (block size
// from the block file, LevelDB size via du), so they ship as an embedded
// fixture; -data replaces them with a CSV when a network is re-measured.
package blockws

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/okian/pirplot/internal/channel"
	"github.com/okian/pirplot/internal/figure"
	"github.com/okian/pirplot/internal/report"
	"github.com/okian/pirplot/internal/table"
)

// Measurement is one channel's ledger footprint. The *_B fields are the
// per-key GetState payload sizes in bytes; BlockKB and StateKB are the
// aggregate sizes in decimal KB.
type Measurement struct {
	Channel  string
	Friendly string
	LogN     int

	MDBBytes       float64 // encoded database payload
	BGVParamsBytes float64
	NBytes         float64
	RecordSBytes   float64
	Record013Bytes float64 // one representative record's JSON payload

	BlockKB  float64
	StateKB  float64
	InitTxID string
}

// Fixture holds the measurements taken on the benchmark network.
var Fixture = []Measurement{
	{
		Channel: "13_64_128", Friendly: "mini", LogN: 13,
		MDBBytes: 65838, BGVParamsBytes: 56, NBytes: 2, RecordSBytes: 3, Record013Bytes: 126,
		BlockKB: 77, StateKB: 112,
		InitTxID: "00220f4d5125a6f38bcfbcefae6b95ce7747869ec57fbc0cf6092e22149eba78",
	},
	{
		Channel: "14_73_224", Friendly: "mid", LogN: 14,
		MDBBytes: 131374, BGVParamsBytes: 57, NBytes: 2, RecordSBytes: 3, Record013Bytes: 222,
		BlockKB: 149, StateKB: 184,
		InitTxID: "197c444dd6658f65ae0f14073a42e509ade0916f25007392334711ed9d713ae6",
	},
	{
		Channel: "15_128_256", Friendly: "rich", LogN: 15,
		MDBBytes: 262446, BGVParamsBytes: 57, NBytes: 3, RecordSBytes: 3, Record013Bytes: 254,
		BlockKB: 294, StateKB: 332,
		InitTxID: "9ce13ee1a7fb1fa7fc029ee8e0fe7790a8354e05d6df2cfb4e01df6fbf10dcf6",
	},
}

// tierOrder fixes the category order of both charts.
var tierOrder = []string{"mini", "mid", "rich"}

func tierRank(friendly string) int {
	for i, t := range tierOrder {
		if t == friendly {
			return i
		}
	}
	return len(tierOrder)
}

// LoadCSV reads replacement measurements from a CSV with the summary
// columns. init_txid may be absent.
func LoadCSV(path string, labels map[string]string) ([]Measurement, error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("channel", "logN", "m_DB_B", "bgv_params_B", "n_B",
		"record_s_B", "record_013_B", "block_KB", "stateLevelDB_KB"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	chIdx := t.Col("channel")
	friendlyIdx := t.Col("friendly")
	logNIdx := t.Col("logN")
	txIdx := t.Col("init_txid")
	mdbIdx := t.Col("m_DB_B")
	bgvIdx := t.Col("bgv_params_B")
	nIdx := t.Col("n_B")
	recSIdx := t.Col("record_s_B")
	rec013Idx := t.Col("record_013_B")
	blockIdx := t.Col("block_KB")
	stateIdx := t.Col("stateLevelDB_KB")

	ms := make([]Measurement, 0, len(t.Rows))
	for _, row := range t.Rows {
		logN := 0
		if v := table.Float(table.Cell(row, logNIdx)); !math.IsNaN(v) {
			logN = int(v)
		}
		m := Measurement{
			Channel:        table.Cell(row, chIdx),
			LogN:           logN,
			MDBBytes:       table.Float(table.Cell(row, mdbIdx)),
			BGVParamsBytes: table.Float(table.Cell(row, bgvIdx)),
			NBytes:         table.Float(table.Cell(row, nIdx)),
			RecordSBytes:   table.Float(table.Cell(row, recSIdx)),
			Record013Bytes: table.Float(table.Cell(row, rec013Idx)),
			BlockKB:        table.Float(table.Cell(row, blockIdx)),
			StateKB:        table.Float(table.Cell(row, stateIdx)),
		}
		if friendlyIdx >= 0 {
			m.Friendly = table.Cell(row, friendlyIdx)
		}
		if m.Friendly == "" {
			m.Friendly = channel.Friendly(m.Channel, labels)
		}
		if txIdx >= 0 {
			m.InitTxID = table.Cell(row, txIdx)
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// load returns the -data override when set, the fixture otherwise, in tier
// order.
func load(dataPath string, env *report.Env) ([]Measurement, error) {
	ms := Fixture
	if dataPath != "" {
		var err error
		ms, err = LoadCSV(dataPath, env.Cfg.Labels)
		if err != nil {
			return nil, err
		}
	}
	if len(ms) == 0 {
		return nil, ErrNoMeasurements
	}
	env.Metrics.AddRowsParsed(len(ms))
	out := append([]Measurement(nil), ms...)
	sort.SliceStable(out, func(a, b int) bool { return tierRank(out[a].Friendly) < tierRank(out[b].Friendly) })
	return out, nil
}

var summaryHeader = []string{
	"channel", "friendly", "logN",
	"block_KB", "stateLevelDB_KB",
	"m_DB_B", "bgv_params_B", "n_B", "record_s_B", "record_013_B",
	"init_txid",
}

func writeSummary(ms []Measurement, figdir string) (string, error) {
	out := filepath.Join(figdir, "block_vs_worldstate_summary.csv")
	recs := make([][]string, 0, len(ms))
	for _, m := range ms {
		recs = append(recs, []string{
			m.Channel, m.Friendly, strconv.Itoa(m.LogN),
			table.FormatFloat(m.BlockKB), table.FormatFloat(m.StateKB),
			table.FormatFloat(m.MDBBytes), table.FormatFloat(m.BGVParamsBytes),
			table.FormatFloat(m.NBytes), table.FormatFloat(m.RecordSBytes),
			table.FormatFloat(m.Record013Bytes),
			m.InitTxID,
		})
	}
	if err := table.WriteFile(out, summaryHeader, recs); err != nil {
		return "", err
	}
	return out, nil
}

func renderPair(ms []Measurement, base string, dpi int) (string, string, error) {
	cats := make([]string, len(ms))
	block := make([]float64, len(ms))
	state := make([]float64, len(ms))
	for i, m := range ms {
		cats[i] = m.Friendly
		block[i] = m.BlockKB
		state[i] = m.StateKB
	}

	p := figure.New("Block vs. World-state size by channel", "Channel (mini, mid, rich)", "Size (KB)")
	series := []figure.Series{
		{Label: "Block size (KB)", Values: block},
		{Label: "World state LevelDB (KB)", Values: state},
	}
	if err := figure.GroupedBars(p, series, cats, figure.PairGrays); err != nil {
		return "", "", err
	}
	w, h := figure.SingleColumn(0.80)
	return figure.Save(p, w, h, base, dpi)
}

// Run implements the block-ws verb.
func Run(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("block-ws", flag.ContinueOnError)
	data := flags.String("data", "", "optional CSV overriding the embedded measurements")
	figdir := flags.String("figdir", filepath.Join("plots", "block_vs_worldstate", "figures"),
		"output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ms, err := load(*data, env)
	if err != nil {
		return err
	}

	csvPath, err := writeSummary(ms, *figdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)

	pdf, png, err := renderPair(ms, filepath.Join(*figdir, "block_vs_worldstate_bw"), *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}

// Components is one channel's footprint decomposed into known parts and the
// residual overhead, all in bytes.
type Components struct {
	Channel    string
	Friendly   string
	LogN       int
	NumRecords int

	MDB       float64
	Metadata  float64 // bgv_params + n + record_s payloads
	JSONEst   float64 // representative record payload times record count
	OverBlock float64
	OverWS    float64

	BlockTotal float64
	WSTotal    float64
}

// Decompose splits a measurement into stacked components. The JSON estimate
// scales the representative record payload by the channel's record count;
// overhead is whatever of the measured total the known parts do not explain,
// clamped at zero.
func Decompose(m Measurement) Components {
	numRecords := channel.RecordCount(m.Channel)
	c := Components{
		Channel: m.Channel, Friendly: m.Friendly, LogN: m.LogN, NumRecords: numRecords,
		MDB:      m.MDBBytes,
		Metadata: m.BGVParamsBytes + m.NBytes + m.RecordSBytes,
		JSONEst:  m.Record013Bytes * float64(numRecords),
		// aggregate sizes were recorded in decimal KB
		BlockTotal: m.BlockKB * 1000,
		WSTotal:    m.StateKB * 1000,
	}
	known := c.MDB + c.Metadata + c.JSONEst
	c.OverBlock = clamp(c.BlockTotal - known)
	c.OverWS = clamp(c.WSTotal - known)
	return c
}

func clamp(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

var componentsHeader = []string{
	"channel", "friendly", "logN", "num_records",
	"m_DB_KB", "metadata_KB", "json_est_KB", "overhead_block_KB",
	"overhead_ws_KB", "block_total_KB", "ws_total_KB",
}

func writeComponents(cs []Components, figdir string) (string, error) {
	out := filepath.Join(figdir, "block_worldstate_components_summary_v3.csv")
	recs := make([][]string, 0, len(cs))
	for _, c := range cs {
		recs = append(recs, []string{
			c.Channel, c.Friendly, strconv.Itoa(c.LogN), strconv.Itoa(c.NumRecords),
			table.FormatFloat(c.MDB / 1000), table.FormatFloat(c.Metadata / 1000),
			table.FormatFloat(c.JSONEst / 1000), table.FormatFloat(c.OverBlock / 1000),
			table.FormatFloat(c.OverWS / 1000), table.FormatFloat(c.BlockTotal / 1000),
			table.FormatFloat(c.WSTotal / 1000),
		})
	}
	if err := table.WriteFile(out, componentsHeader, recs); err != nil {
		return "", err
	}
	return out, nil
}

// componentGrays shades the four stacked segments darkest-first.
var componentGrays = []color.Color{
	color.Gray{Y: 51}, color.Gray{Y: 140}, color.Gray{Y: 191}, color.Gray{Y: 230},
}

func renderStacked(cs []Components, overhead func(Components) float64,
	title, base string, ylim float64, dpi int) (string, string, error) {
	cats := make([]string, len(cs))
	mdb := make([]float64, len(cs))
	meta := make([]float64, len(cs))
	jsonEst := make([]float64, len(cs))
	over := make([]float64, len(cs))
	for i, c := range cs {
		cats[i] = c.Friendly
		mdb[i] = c.MDB / 1000
		meta[i] = c.Metadata / 1000
		jsonEst[i] = c.JSONEst / 1000
		over[i] = overhead(c) / 1000
	}

	p := figure.New(title, "Channel (mini, mid, rich)", "Size (KB)")
	series := []figure.Series{
		{Label: "m_DB", Values: mdb},
		{Label: "metadata", Values: meta},
		{Label: "json (est.)", Values: jsonEst},
		{Label: "overhead", Values: over},
	}
	if err := figure.StackedBars(p, series, cats, componentGrays); err != nil {
		return "", "", err
	}
	if ylim > 0 {
		p.Y.Min = 0
		p.Y.Max = ylim
	}
	w, h := figure.SingleColumn(0.80)
	return figure.Save(p, w, h, base, dpi)
}

// RunStacked implements the block-ws-stacked verb.
func RunStacked(ctx context.Context, args []string, env *report.Env) error {
	flags := flag.NewFlagSet("block-ws-stacked", flag.ContinueOnError)
	data := flags.String("data", "", "optional CSV overriding the embedded measurements")
	figdir := flags.String("figdir", filepath.Join("plots", "block_vs_worldstate", "figures"),
		"output directory for figures and the summary CSV")
	dpi := flags.Int("dpi", env.Cfg.DPI, "PNG resolution")
	ylimBlock := flags.Float64("ylim-block", 0, "Y-axis top for the block breakdown in KB (0 = auto)")
	ylimWS := flags.Float64("ylim-ws", 0, "Y-axis top for the world-state breakdown in KB (0 = auto)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ms, err := load(*data, env)
	if err != nil {
		return err
	}
	cs := make([]Components, len(ms))
	for i, m := range ms {
		cs[i] = Decompose(m)
	}

	csvPath, err := writeComponents(cs, *figdir)
	if err != nil {
		return err
	}
	env.NoteCSV(ctx, csvPath)

	pdf, png, err := renderStacked(cs, func(c Components) float64 { return c.OverBlock },
		"Block size breakdown by channel",
		filepath.Join(*figdir, "blockchan_components_bw_v3"), *ylimBlock, *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)

	pdf, png, err = renderStacked(cs, func(c Components) float64 { return c.OverWS },
		"World-state (LevelDB) breakdown by channel",
		filepath.Join(*figdir, "worldstate_components_bw_v3"), *ylimWS, *dpi)
	if err != nil {
		return err
	}
	env.NoteFigure(ctx, pdf, png)
	return nil
}
