// Package table is a minimal layer over encoding/csv for the fixed-schema
// measurement files the report verbs consume: header-addressed cells, schema
// checks with descriptive failures, and float coercion where a bad cell
// becomes NaN rather than an error.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Table holds one parsed CSV file. Header names are stored trimmed.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadFile loads path as CSV. Missing files surface the underlying
// *os.PathError so callers can decide whether that input was optional.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return t, nil
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*Table, error) {
	rdr := csv.NewReader(r)
	records, err := rdr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrSchema)
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Header: header, Rows: records[1:]}, nil
}

// Col returns the index of the trimmed header name, or -1.
func (t *Table) Col(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// FuzzyCol matches a header case-insensitively after stripping spaces and
// underscores, so "execution_time_ms", "Execution Time MS" and
// "EXECUTION_TIME_MS" all resolve. Returns -1 when absent.
func (t *Table) FuzzyCol(name string) int {
	want := canonical(name)
	for i, h := range t.Header {
		if canonical(h) == want {
			return i
		}
	}
	return -1
}

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// Require fails with a descriptive error unless every named column exists.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if t.Col(c) == -1 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %v (have %v)", ErrSchema, missing, t.Header)
	}
	return nil
}

// RequireExactly fails unless the header is exactly the named column set,
// in any order.
func (t *Table) RequireExactly(cols ...string) error {
	have := append([]string(nil), t.Header...)
	want := append([]string(nil), cols...)
	sort.Strings(have)
	sort.Strings(want)
	if len(have) != len(want) {
		return fmt.Errorf("%w: unexpected columns %v, want %v", ErrSchema, t.Header, cols)
	}
	for i := range have {
		if have[i] != want[i] {
			return fmt.Errorf("%w: unexpected columns %v, want %v", ErrSchema, t.Header, cols)
		}
	}
	return nil
}

// Cell returns row[idx], or "" when the row is short or idx is -1.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Float coerces a cell to float64; unparsable or empty cells become NaN.
func Float(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatFloat renders v for a summary CSV; NaN becomes the empty cell so a
// reload maps it back to missing.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile writes header+rows to path, creating parent directories.
func WriteFile(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
