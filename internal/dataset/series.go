// File: internal/dataset/series.go
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the storage types a column can have.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int64"
	KindFloat    Kind = "float64"
	KindBool     Kind = "bool"
	KindTime     Kind = "datetime64"
	KindCategory Kind = "category"
)

// timeLayouts are tried in order when parsing datetime cells.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
}

// Series is one typed column with a null mask. Exactly one value slice is
// populated, matching the Kind; categories share the string slice.
type Series struct {
	name  string
	kind  Kind
	strs  []string
	ints  []int64
	flts  []float64
	bools []bool
	times []time.Time
	null  []bool
}

// NewStringSeries builds a string column. Empty cells are nulls.
func NewStringSeries(name string, vals []string) *Series {
	s := &Series{name: name, kind: KindString, strs: append([]string(nil), vals...), null: make([]bool, len(vals))}
	for i, v := range vals {
		if v == "" {
			s.null[i] = true
		}
	}
	return s
}

// NewIntSeries builds an int64 column; null marks missing cells.
func NewIntSeries(name string, vals []int64, null []bool) *Series {
	return &Series{name: name, kind: KindInt, ints: append([]int64(nil), vals...), null: cloneMask(null, len(vals))}
}

// NewFloatSeries builds a float64 column; null marks missing cells.
func NewFloatSeries(name string, vals []float64, null []bool) *Series {
	return &Series{name: name, kind: KindFloat, flts: append([]float64(nil), vals...), null: cloneMask(null, len(vals))}
}

// NewBoolSeries builds a bool column; null marks missing cells.
func NewBoolSeries(name string, vals []bool, null []bool) *Series {
	return &Series{name: name, kind: KindBool, bools: append([]bool(nil), vals...), null: cloneMask(null, len(vals))}
}

// NewTimeSeries builds a datetime column; null marks missing cells.
func NewTimeSeries(name string, vals []time.Time, null []bool) *Series {
	return &Series{name: name, kind: KindTime, times: append([]time.Time(nil), vals...), null: cloneMask(null, len(vals))}
}

func cloneMask(null []bool, n int) []bool {
	if null == nil {
		return make([]bool, n)
	}
	return append([]bool(nil), null...)
}

func (s *Series) Name() string { return s.name }
func (s *Series) Kind() Kind   { return s.kind }
func (s *Series) Len() int     { return len(s.null) }

// IsNull reports whether the cell at i is missing.
func (s *Series) IsNull(i int) bool { return s.null[i] }

// NullCount returns the number of missing cells.
func (s *Series) NullCount() int {
	n := 0
	for _, m := range s.null {
		if m {
			n++
		}
	}
	return n
}

// SetNull marks the cell at i missing.
func (s *Series) SetNull(i int) { s.null[i] = true }

// IsNumeric reports whether the column participates in numeric profiling.
func (s *Series) IsNumeric() bool { return s.kind == KindInt || s.kind == KindFloat }

// IsTextual reports whether the column holds free or categorical text.
func (s *Series) IsTextual() bool { return s.kind == KindString || s.kind == KindCategory }

// Float returns the cell at i as a float64. ok is false for nulls and for
// kinds with no numeric reading.
func (s *Series) Float(i int) (float64, bool) {
	if s.null[i] {
		return 0, false
	}
	switch s.kind {
	case KindInt:
		return float64(s.ints[i]), true
	case KindFloat:
		return s.flts[i], true
	case KindBool:
		if s.bools[i] {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// SetFloat writes a numeric cell and clears its null flag. The column must be
// int64 or float64; int columns truncate.
func (s *Series) SetFloat(i int, v float64) error {
	switch s.kind {
	case KindInt:
		s.ints[i] = int64(v)
	case KindFloat:
		s.flts[i] = v
	default:
		return fmt.Errorf("column %q is %s, not numeric", s.name, s.kind)
	}
	s.null[i] = false
	return nil
}

// String renders the cell at i for display and CSV export; nulls render empty.
func (s *Series) String(i int) string {
	if s.null[i] {
		return ""
	}
	switch s.kind {
	case KindString, KindCategory:
		return s.strs[i]
	case KindInt:
		return strconv.FormatInt(s.ints[i], 10)
	case KindFloat:
		return strconv.FormatFloat(s.flts[i], 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(s.bools[i])
	case KindTime:
		return s.times[i].Format(time.RFC3339)
	}
	return ""
}

// SetString writes a textual cell and clears its null flag.
func (s *Series) SetString(i int, v string) error {
	if !s.IsTextual() {
		return fmt.Errorf("column %q is %s, not textual", s.name, s.kind)
	}
	s.strs[i] = v
	s.null[i] = false
	return nil
}

// Floats returns the non-null cells as a float slice, for statistics.
func (s *Series) Floats() []float64 {
	out := make([]float64, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if v, ok := s.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// Uniques returns the distinct non-null rendered values in first-seen order,
// capped at limit (<=0 means no cap).
func (s *Series) Uniques(limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < s.Len(); i++ {
		if s.null[i] {
			continue
		}
		v := s.String(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// NUnique returns the count of distinct non-null values.
func (s *Series) NUnique() int {
	seen := make(map[string]struct{})
	for i := 0; i < s.Len(); i++ {
		if !s.null[i] {
			seen[s.String(i)] = struct{}{}
		}
	}
	return len(seen)
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	return &Series{
		name:  s.name,
		kind:  s.kind,
		strs:  append([]string(nil), s.strs...),
		ints:  append([]int64(nil), s.ints...),
		flts:  append([]float64(nil), s.flts...),
		bools: append([]bool(nil), s.bools...),
		times: append([]time.Time(nil), s.times...),
		null:  append([]bool(nil), s.null...),
	}
}

// filter keeps only rows where keep[i] is true.
func (s *Series) filter(keep []bool) {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if !keep[i] {
			continue
		}
		if len(s.strs) > 0 {
			s.strs[n] = s.strs[i]
		}
		if len(s.ints) > 0 {
			s.ints[n] = s.ints[i]
		}
		if len(s.flts) > 0 {
			s.flts[n] = s.flts[i]
		}
		if len(s.bools) > 0 {
			s.bools[n] = s.bools[i]
		}
		if len(s.times) > 0 {
			s.times[n] = s.times[i]
		}
		s.null[n] = s.null[i]
		n++
	}
	if len(s.strs) > 0 {
		s.strs = s.strs[:n]
	}
	if len(s.ints) > 0 {
		s.ints = s.ints[:n]
	}
	if len(s.flts) > 0 {
		s.flts = s.flts[:n]
	}
	if len(s.bools) > 0 {
		s.bools = s.bools[:n]
	}
	if len(s.times) > 0 {
		s.times = s.times[:n]
	}
	s.null = s.null[:n]
}

// Cast converts the series to the target kind. A cell that cannot be
// converted fails the whole cast; nulls carry over unchanged.
func (s *Series) Cast(target Kind) (*Series, error) {
	if s.kind == target {
		return s.Clone(), nil
	}
	n := s.Len()
	out := &Series{name: s.name, kind: target, null: append([]bool(nil), s.null...)}
	switch target {
	case KindString, KindCategory:
		out.strs = make([]string, n)
		for i := 0; i < n; i++ {
			if !s.null[i] {
				out.strs[i] = s.String(i)
			}
		}
	case KindInt:
		out.ints = make([]int64, n)
		for i := 0; i < n; i++ {
			if s.null[i] {
				continue
			}
			v, err := parseInt(s.String(i))
			if err != nil {
				return nil, fmt.Errorf("cast %q to int64: row %d: %w", s.name, i, err)
			}
			out.ints[i] = v
		}
	case KindFloat:
		out.flts = make([]float64, n)
		for i := 0; i < n; i++ {
			if s.null[i] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(s.String(i)), 64)
			if err != nil {
				return nil, fmt.Errorf("cast %q to float64: row %d: %w", s.name, i, err)
			}
			out.flts[i] = v
		}
	case KindBool:
		out.bools = make([]bool, n)
		for i := 0; i < n; i++ {
			if s.null[i] {
				continue
			}
			v, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(s.String(i))))
			if err != nil {
				return nil, fmt.Errorf("cast %q to bool: row %d: %w", s.name, i, err)
			}
			out.bools[i] = v
		}
	case KindTime:
		out.times = make([]time.Time, n)
		for i := 0; i < n; i++ {
			if s.null[i] {
				continue
			}
			t, err := parseTime(s.String(i))
			if err != nil {
				return nil, fmt.Errorf("cast %q to datetime64: row %d: %w", s.name, i, err)
			}
			out.times[i] = t
		}
	default:
		return nil, fmt.Errorf("unknown target kind %q", target)
	}
	return out, nil
}

func parseInt(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	// Tolerate integral floats like "3.0".
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", raw)
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("value %q has a fractional part", raw)
	}
	return int64(f), nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("value %q matches no supported datetime layout", raw)
}
