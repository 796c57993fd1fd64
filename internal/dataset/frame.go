// File: internal/dataset/frame.go
package dataset

import (
	"fmt"
	"strings"
)

// Frame is the tabular working dataset: an ordered set of typed columns of
// equal length. The session controller owns exactly one logical working copy
// at a time; every apply step derives a new frame from a Clone, never by
// mutating a frame still referenced by history.
type Frame struct {
	cols  []*Series
	index map[string]int
}

// NewFrame assembles a frame from columns. Column names must be unique and
// lengths must agree.
func NewFrame(cols ...*Series) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := f.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NumRows returns the row count; zero for an empty frame.
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Column returns the named column, or false when absent.
func (f *Frame) Column(name string) (*Series, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// AddColumn appends a column. Length must match existing columns.
func (f *Frame) AddColumn(s *Series) error {
	if _, dup := f.index[s.name]; dup {
		return fmt.Errorf("duplicate column %q", s.name)
	}
	if len(f.cols) > 0 && s.Len() != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, frame has %d", s.name, s.Len(), f.NumRows())
	}
	f.index[s.name] = len(f.cols)
	f.cols = append(f.cols, s)
	return nil
}

// ReplaceColumn swaps the named column for a same-length replacement,
// preserving column order.
func (f *Frame) ReplaceColumn(name string, s *Series) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("unknown column %q", name)
	}
	if s.Len() != f.NumRows() {
		return fmt.Errorf("replacement for %q has %d rows, frame has %d", name, s.Len(), f.NumRows())
	}
	if s.name != name {
		delete(f.index, name)
		f.index[s.name] = i
	}
	f.cols[i] = s
	return nil
}

// DropColumn removes the named column.
func (f *Frame) DropColumn(name string) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("unknown column %q", name)
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	delete(f.index, name)
	for j := i; j < len(f.cols); j++ {
		f.index[f.cols[j].name] = j
	}
	return nil
}

// FilterRows keeps only rows where keep[i] is true, across all columns.
func (f *Frame) FilterRows(keep []bool) error {
	if len(keep) != f.NumRows() {
		return fmt.Errorf("keep mask has %d entries, frame has %d rows", len(keep), f.NumRows())
	}
	for _, c := range f.cols {
		c.filter(keep)
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols))}
	for _, c := range f.cols {
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c.Clone())
	}
	return out
}

// rowKey renders a row for duplicate detection. The unit separator keeps
// adjacent cells from colliding.
func (f *Frame) rowKey(i int) string {
	var b strings.Builder
	for _, c := range f.cols {
		if c.IsNull(i) {
			b.WriteString("\x00")
		} else {
			b.WriteString(c.String(i))
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// DuplicateCount returns the number of rows that exactly repeat an earlier
// row, matching the pandas df.duplicated().sum() convention.
func (f *Frame) DuplicateCount() int {
	seen := make(map[string]struct{}, f.NumRows())
	dups := 0
	for i := 0; i < f.NumRows(); i++ {
		k := f.rowKey(i)
		if _, ok := seen[k]; ok {
			dups++
		} else {
			seen[k] = struct{}{}
		}
	}
	return dups
}

// DropDuplicates removes every row that exactly repeats an earlier row,
// keeping first occurrences.
func (f *Frame) DropDuplicates() {
	seen := make(map[string]struct{}, f.NumRows())
	keep := make([]bool, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		k := f.rowKey(i)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keep[i] = true
		}
	}
	// Mask length always matches here.
	_ = f.FilterRows(keep)
}

// TotalNulls returns the count of missing cells across all columns.
func (f *Frame) TotalNulls() int {
	n := 0
	for _, c := range f.cols {
		n += c.NullCount()
	}
	return n
}

// Head renders the first n rows as display strings, header row first.
func (f *Frame) Head(n int) [][]string {
	if n > f.NumRows() {
		n = f.NumRows()
	}
	out := make([][]string, 0, n+1)
	out = append(out, f.Columns())
	for i := 0; i < n; i++ {
		row := make([]string, len(f.cols))
		for j, c := range f.cols {
			row[j] = c.String(i)
		}
		out = append(out, row)
	}
	return out
}
