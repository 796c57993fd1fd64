// File: internal/dataset/series_test.go
package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStringSeriesNullMask(t *testing.T) {
	s := NewStringSeries("city", []string{"NY", "", "LA"})
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1), "empty string cells are null")
	assert.Equal(t, 1, s.NullCount())
}

func TestSeriesCast(t *testing.T) {
	tests := []struct {
		name    string
		series  *Series
		target  Kind
		wantErr bool
		check   func(t *testing.T, out *Series)
	}{
		{
			name:   "string to int",
			series: NewStringSeries("n", []string{"1", "2", ""}),
			target: KindInt,
			check: func(t *testing.T, out *Series) {
				assert.Equal(t, KindInt, out.Kind())
				v, has := out.Float(0)
				assert.True(t, has)
				assert.Equal(t, 1.0, v)
				assert.True(t, out.IsNull(2), "null survives the cast")
			},
		},
		{
			name:   "float-shaped string to int",
			series: NewStringSeries("n", []string{"3.0"}),
			target: KindInt,
			check: func(t *testing.T, out *Series) {
				v, _ := out.Float(0)
				assert.Equal(t, 3.0, v)
			},
		},
		{
			name:    "non-numeric string to int fails",
			series:  NewStringSeries("n", []string{"1", "abc"}),
			target:  KindInt,
			wantErr: true,
		},
		{
			name:   "string to float",
			series: NewStringSeries("n", []string{"1.5", "-2"}),
			target: KindFloat,
			check: func(t *testing.T, out *Series) {
				v, _ := out.Float(0)
				assert.Equal(t, 1.5, v)
			},
		},
		{
			name:   "string to datetime",
			series: NewStringSeries("d", []string{"2024-01-02", ""}),
			target: KindTime,
			check: func(t *testing.T, out *Series) {
				assert.Equal(t, KindTime, out.Kind())
				assert.Equal(t, "2024-01-02", out.String(0)[:10])
				assert.True(t, out.IsNull(1))
			},
		},
		{
			name:    "garbage to datetime fails",
			series:  NewStringSeries("d", []string{"not a date"}),
			target:  KindTime,
			wantErr: true,
		},
		{
			name:   "int to category keeps text",
			series: NewIntSeries("c", []int64{1, 2}, nil),
			target: KindCategory,
			check: func(t *testing.T, out *Series) {
				assert.Equal(t, KindCategory, out.Kind())
				assert.Equal(t, "1", out.String(0))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := tc.series.Cast(tc.target)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, out)
			tc.check(t, out)
		})
	}
}

func TestSeriesCastDoesNotMutateSource(t *testing.T) {
	src := NewStringSeries("n", []string{"1", "2"})
	_, err := src.Cast(KindInt)
	require.NoError(t, err)
	assert.Equal(t, KindString, src.Kind())
}

func TestSeriesUniquesAndNUnique(t *testing.T) {
	s := NewStringSeries("c", []string{"a", "b", "a", "", "c", "b"})
	assert.Equal(t, 3, s.NUnique(), "nulls do not count as a value")
	assert.Equal(t, []string{"a", "b"}, s.Uniques(2), "cap respected, first-seen order")
}

func TestSeriesFloatBoolBridge(t *testing.T) {
	s := NewBoolSeries("flag", []bool{true, false}, nil)
	v, has := s.Float(0)
	assert.True(t, has)
	assert.Equal(t, 1.0, v)
	v, _ = s.Float(1)
	assert.Equal(t, 0.0, v)
}

func TestTimeSeriesRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewTimeSeries("d", []time.Time{ts}, nil)
	assert.Contains(t, s.String(0), "2024-05-01")
}
