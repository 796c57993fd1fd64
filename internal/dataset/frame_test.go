// File: internal/dataset/frame_test.go
package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(t *testing.T, cols ...*Series) *Frame {
	t.Helper()
	f, err := NewFrame(cols...)
	require.NoError(t, err)
	return f
}

// duplicated20 builds a 20-row frame where three rows are exact copies of
// earlier rows.
func duplicated20(t *testing.T) *Frame {
	t.Helper()
	ids := make([]int64, 20)
	names := make([]string, 20)
	for i := 0; i < 20; i++ {
		ids[i] = int64(i % 17)
		names[i] = string(rune('a' + i%17))
	}
	return newTestFrame(t,
		NewIntSeries("id", ids, nil),
		NewStringSeries("name", names),
	)
}

func TestDuplicateCount(t *testing.T) {
	f := duplicated20(t)
	assert.Equal(t, 20, f.NumRows())
	assert.Equal(t, 3, f.DuplicateCount(), "copies beyond the first occurrence count")
}

func TestDropDuplicatesKeepsFirst(t *testing.T) {
	f := duplicated20(t)
	before := f.NumRows()
	dupes := f.DuplicateCount()

	f.DropDuplicates()

	assert.Equal(t, before-dupes, f.NumRows())
	assert.Equal(t, 0, f.DuplicateCount())
}

func TestDuplicateCountDistinguishesNullFromEmptyKey(t *testing.T) {
	// A null cell and a non-null empty string must not collide into the same
	// row key.
	a := NewStringSeries("a", []string{"", "x"})
	require.True(t, a.IsNull(0))
	require.NoError(t, a.SetString(1, ""))
	f := newTestFrame(t, a, NewStringSeries("b", []string{"y", "y"}))
	assert.Equal(t, 0, f.DuplicateCount())
}

func TestFilterRows(t *testing.T) {
	f := newTestFrame(t,
		NewIntSeries("n", []int64{1, 2, 3}, nil),
		NewStringSeries("s", []string{"a", "b", "c"}),
	)
	require.NoError(t, f.FilterRows([]bool{true, false, true}))
	assert.Equal(t, 2, f.NumRows())
	s, _ := f.Column("s")
	assert.Equal(t, "c", s.String(1))
}

func TestAddReplaceDropColumn(t *testing.T) {
	f := newTestFrame(t, NewIntSeries("n", []int64{1, 2}, nil))

	require.NoError(t, f.AddColumn(NewStringSeries("s", []string{"a", "b"})))
	assert.Equal(t, []string{"n", "s"}, f.Columns())

	err := f.AddColumn(NewStringSeries("s", []string{"x", "y"}))
	assert.Error(t, err, "duplicate column names are rejected")

	require.NoError(t, f.ReplaceColumn("n", NewFloatSeries("n", []float64{1.5, 2.5}, nil)))
	n, _ := f.Column("n")
	assert.Equal(t, KindFloat, n.Kind())

	require.NoError(t, f.DropColumn("s"))
	assert.Equal(t, []string{"n"}, f.Columns())
	assert.Error(t, f.DropColumn("missing"))
}

func TestCloneIsDeep(t *testing.T) {
	f := newTestFrame(t, NewStringSeries("s", []string{"a", "b"}))
	clone := f.Clone()

	s, _ := clone.Column("s")
	require.NoError(t, s.SetString(0, "changed"))

	orig, _ := f.Column("s")
	assert.Equal(t, "a", orig.String(0))
}

func TestTotalNullsAndHead(t *testing.T) {
	f := newTestFrame(t,
		NewStringSeries("a", []string{"x", "", "z"}),
		NewStringSeries("b", []string{"", "", "w"}),
	)
	assert.Equal(t, 3, f.TotalNulls())

	head := f.Head(2)
	want := [][]string{
		{"a", "b"},
		{"x", ""},
		{"", ""},
	}
	if diff := cmp.Diff(want, head); diff != "" {
		t.Errorf("Head mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFrameRejectsRaggedColumns(t *testing.T) {
	_, err := NewFrame(
		NewIntSeries("a", []int64{1, 2}, nil),
		NewIntSeries("b", []int64{1}, nil),
	)
	assert.Error(t, err)
}
