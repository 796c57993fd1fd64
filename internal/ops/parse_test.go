// File: internal/ops/parse_test.go
package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelmore/scour-cli/internal/dataset"
)

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Op
	}{
		{"noop", "noop()", NoOp{}},
		{"noop with semicolon", "  noop();  ", NoOp{}},
		{"cast int", "cast(age, int64)", Cast{Column: "age", Target: dataset.KindInt}},
		{"cast datetime alias", "cast(joined, datetime64[ns])", Cast{Column: "joined", Target: dataset.KindTime}},
		{"cast quoted column", `cast("first name", string)`, Cast{Column: "first name", Target: dataset.KindString}},
		{"drop rows", "drop_rows(age)", DropRows{Column: "age"}},
		{"drop column", "drop_column(notes)", DropColumn{Column: "notes"}},
		{"fillna mean", "fillna(age, mean)", FillNA{Column: "age", Strategy: FillMean}},
		{"fillna const", `fillna(city, const, "Unknown")`, FillNA{Column: "city", Strategy: FillConstant, Constant: "Unknown"}},
		{"fillna const numeric", "fillna(age, const, 0)", FillNA{Column: "age", Strategy: FillConstant, Constant: "0"}},
		{"drop duplicates", "drop_duplicates()", DropDuplicates{}},
		{"clip", "clip(score, -3, 3)", Clip{Column: "score", Lo: -3, Hi: 3}},
		{"winsorize default", "winsorize(score)", Winsorize{Column: "score", P: 0.05}},
		{"winsorize explicit", "winsorize(score, 0.01)", Winsorize{Column: "score", P: 0.01}},
		{"remove outliers default", "remove_outliers(score)", RemoveOutliers{Column: "score", K: 1.5}},
		{"flag outliers", "flag_outliers(score, 3)", FlagOutliers{Column: "score", K: 3}},
		{"scale standard", "scale(score, standard)", Scale{Column: "score", Method: ScaleStandard}},
		{"map values", `map_values(country, "U.S.A"=>"USA", "United States"=>"USA")`,
			MapValues{Column: "country", Mappings: []Mapping{
				{From: "U.S.A", To: "USA"}, {From: "United States", To: "USA"},
			}}},
		{"map values arrow inside value", `map_values(code, "A=>B"=>"AB")`,
			MapValues{Column: "code", Mappings: []Mapping{{From: "A=>B", To: "AB"}}}},
		{"map values comma inside value", `map_values(name, "Doe, Jane"=>"Jane Doe")`,
			MapValues{Column: "name", Mappings: []Mapping{{From: "Doe, Jane", To: "Jane Doe"}}}},
		{"derive", "derive(total, price * quantity)", Derive{Name: "total", Formula: "price * quantity"}},
		{"derive quoted formula", `derive(total, "price * quantity")`, Derive{Name: "total", Formula: "price * quantity"}},
		{"derive parenthesized", "derive(ratio, (a + b) / c)", Derive{Name: "ratio", Formula: "(a + b) / c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op, err := Parse(tc.code)
			require.NoError(t, err)
			assert.Equal(t, tc.want, op)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"free text", "please drop the duplicates"},
		{"unknown op", "explode(city)"},
		{"python", "df['age'].fillna(df['age'].mean(), inplace=True)"},
		{"cast arity", "cast(age)"},
		{"cast bad kind", "cast(age, decimal)"},
		{"fillna bad strategy", "fillna(age, average)"},
		{"fillna const missing value", "fillna(age, const)"},
		{"fillna mean with extra arg", "fillna(age, mean, 1)"},
		{"clip non-numeric bound", "clip(score, low, high)"},
		{"map values bad pair", "map_values(country, USA)"},
		{"unbalanced parens", "derive(x, (a + b"},
		{"unterminated quote", `drop_column("notes)`},
		{"two statements", "noop(); noop()"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.code)
			assert.Error(t, err)
		})
	}
}

// Every op's String form must parse back to an equivalent op, since advisor
// round trips and logs both carry the rendered statement.
func TestParseStringRoundTrip(t *testing.T) {
	ops := []Op{
		NoOp{},
		Cast{Column: "age", Target: dataset.KindInt},
		DropRows{Column: "age"},
		DropColumn{Column: "first name"},
		FillNA{Column: "age", Strategy: FillMedian},
		FillNA{Column: "city", Strategy: FillConstant, Constant: "Unknown"},
		DropDuplicates{},
		Clip{Column: "score", Lo: -1.5, Hi: 2.5},
		Winsorize{Column: "score", P: 0.05},
		RemoveOutliers{Column: "score", K: 1.5},
		FlagOutliers{Column: "score", K: 3},
		Scale{Column: "score", Method: ScaleMinMax},
		MapValues{Column: "country", Mappings: []Mapping{{From: "U.S.A", To: "USA"}}},
		MapValues{Column: "code", Mappings: []Mapping{
			{From: "A => B", To: "AB"}, {From: `say "hi"`, To: "greeting"},
		}},
		Derive{Name: "total", Formula: "price * quantity"},
	}
	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			parsed, err := Parse(op.String())
			require.NoError(t, err)
			assert.Equal(t, op, parsed)
		})
	}
}
