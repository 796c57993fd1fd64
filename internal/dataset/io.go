// File: internal/dataset/io.go
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadOptions tunes dataset ingestion.
type LoadOptions struct {
	// Delimiter forces a field separator; zero means sniff by extension and
	// first-line counting (comma, tab, semicolon).
	Delimiter rune
	// TypeInferenceRows caps how many rows are scanned to decide each
	// column's kind; zero means scan everything.
	TypeInferenceRows int
}

// Load reads a delimited text file into a typed frame. A parse failure is
// fatal: the caller creates no session state from a partial read.
func Load(path string, opts LoadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Ext(path), opts)
}

// Read parses delimited text from r. ext hints the delimiter (".tsv"/".tab"
// force tabs) when opts.Delimiter is unset.
func Read(r io.Reader, ext string, opts LoadOptions) (*Frame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(string(raw), ext)
	}

	cr := csv.NewReader(strings.NewReader(string(raw)))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	header := records[0]
	rows := records[1:]
	cols := make([]*Series, 0, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		cols = append(cols, inferSeries(name, cells, opts.TypeInferenceRows))
	}
	return NewFrame(cols...)
}

// WriteCSV renders the frame back to delimited text.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, f.NumCols())
	for i := 0; i < f.NumRows(); i++ {
		for j, name := range f.Columns() {
			c, _ := f.Column(name)
			row[j] = c.String(i)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the frame to a CSV file.
func Save(path string, f *Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	return WriteCSV(out, f)
}

func sniffDelimiter(raw, ext string) rune {
	switch strings.ToLower(ext) {
	case ".tsv", ".tab":
		return '\t'
	}
	firstLine := raw
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		firstLine = raw[:i]
	}
	best, bestCount := ',', strings.Count(firstLine, ",")
	for _, cand := range []rune{'\t', ';'} {
		if n := strings.Count(firstLine, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// nullTokens are cell spellings treated as missing on ingest.
var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {},
}

func isNullToken(cell string) bool {
	_, ok := nullTokens[strings.ToLower(cell)]
	return ok
}

// inferSeries types a raw column by checking up to sampleRows non-null cells:
// ints, then floats, then bools, then datetimes, else strings. Null tokens are
// marked on every row; the sampling cap bounds only the type checks.
func inferSeries(name string, cells []string, sampleRows int) *Series {
	null := make([]bool, len(cells))
	nonNull := 0
	allInt, allFloat, allBool, allTime := true, true, true, true
	for i, cell := range cells {
		if isNullToken(cell) {
			null[i] = true
			continue
		}
		if sampleRows > 0 && nonNull >= sampleRows {
			continue
		}
		nonNull++
		if allInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, err := strconv.ParseBool(strings.ToLower(cell)); err != nil {
				allBool = false
			}
		}
		if allTime {
			if _, err := parseTime(cell); err != nil {
				allTime = false
			}
		}
	}
	if nonNull == 0 {
		return stringSeries(name, cells, null)
	}

	switch {
	case allInt:
		vals := make([]int64, len(cells))
		for i, cell := range cells {
			if null[i] {
				continue
			}
			v, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return stringSeries(name, cells, null)
			}
			vals[i] = v
		}
		return NewIntSeries(name, vals, null)
	case allFloat:
		vals := make([]float64, len(cells))
		for i, cell := range cells {
			if null[i] {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return stringSeries(name, cells, null)
			}
			vals[i] = v
		}
		return NewFloatSeries(name, vals, null)
	case allBool:
		vals := make([]bool, len(cells))
		for i, cell := range cells {
			if null[i] {
				continue
			}
			v, err := strconv.ParseBool(strings.ToLower(cell))
			if err != nil {
				return stringSeries(name, cells, null)
			}
			vals[i] = v
		}
		return NewBoolSeries(name, vals, null)
	case allTime:
		vals := make([]time.Time, len(cells))
		for i, cell := range cells {
			if null[i] {
				continue
			}
			t, err := parseTime(cell)
			if err != nil {
				return stringSeries(name, cells, null)
			}
			vals[i] = t
		}
		return NewTimeSeries(name, vals, null)
	}

	return stringSeries(name, cells, null)
}

// stringSeries builds the string fallback while keeping the null tokens
// already identified during the scan.
func stringSeries(name string, cells []string, null []bool) *Series {
	s := NewStringSeries(name, cells)
	for i, missing := range null {
		if missing {
			s.SetNull(i)
		}
	}
	return s
}
