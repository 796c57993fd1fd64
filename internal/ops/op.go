// File: internal/ops/op.go
//
// Package ops defines the closed instruction set every cleaning decision is
// lowered to before touching the working dataset. Each statement is a tagged
// operation with typed parameters; there is no arbitrary code execution. Ops
// read and write only the frame they are applied to.
package ops

import (
	"fmt"
	"math"
	"strings"

	"github.com/adelmore/scour-cli/internal/dataset"
)

// Op is a single executable data-manipulation instruction.
type Op interface {
	// Apply mutates the given frame in place. The caller is expected to pass
	// a private clone when the mutation is speculative.
	Apply(f *dataset.Frame) error
	// String renders the op back to its statement form.
	String() string
}

// NoOp is the fixed placeholder meaning "nothing to do".
type NoOp struct{}

func (NoOp) Apply(*dataset.Frame) error { return nil }
func (NoOp) String() string             { return "noop()" }

// Cast converts a column to a new kind.
type Cast struct {
	Column string
	Target dataset.Kind
}

func (o Cast) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	cast, err := s.Cast(o.Target)
	if err != nil {
		return err
	}
	return f.ReplaceColumn(o.Column, cast)
}

func (o Cast) String() string { return fmt.Sprintf("cast(%s, %s)", quoteIfNeeded(o.Column), o.Target) }

// DropRows removes every row where the column is null.
type DropRows struct{ Column string }

func (o DropRows) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	keep := make([]bool, f.NumRows())
	for i := range keep {
		keep[i] = !s.IsNull(i)
	}
	return f.FilterRows(keep)
}

func (o DropRows) String() string { return fmt.Sprintf("drop_rows(%s)", quoteIfNeeded(o.Column)) }

// DropColumn removes a column entirely.
type DropColumn struct{ Column string }

func (o DropColumn) Apply(f *dataset.Frame) error { return f.DropColumn(o.Column) }
func (o DropColumn) String() string {
	return fmt.Sprintf("drop_column(%s)", quoteIfNeeded(o.Column))
}

// FillStrategy selects how FillNA replaces missing cells.
type FillStrategy string

const (
	FillMean     FillStrategy = "mean"
	FillMedian   FillStrategy = "median"
	FillMode     FillStrategy = "mode"
	FillConstant FillStrategy = "const"
)

// FillNA replaces the nulls of one column.
type FillNA struct {
	Column   string
	Strategy FillStrategy
	// Constant is the fill value for FillConstant, rendered as text and
	// parsed against the column's kind.
	Constant string
}

func (o FillNA) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}

	switch o.Strategy {
	case FillMean, FillMedian:
		if !s.IsNumeric() {
			return fmt.Errorf("fillna %s needs a numeric column, %q is %s", o.Strategy, o.Column, s.Kind())
		}
		var v float64
		var has bool
		if o.Strategy == FillMean {
			v, has = dataset.Mean(s)
		} else {
			v, has = dataset.Median(s)
		}
		if !has {
			return fmt.Errorf("column %q has no values to derive a %s from", o.Column, o.Strategy)
		}
		s, err := upcastForFill(f, s, v)
		if err != nil {
			return err
		}
		for i := 0; i < s.Len(); i++ {
			if s.IsNull(i) {
				if err := s.SetFloat(i, v); err != nil {
					return err
				}
			}
		}
		return nil

	case FillMode:
		v, has := dataset.Mode(s)
		if !has {
			return fmt.Errorf("column %q has no values to derive a mode from", o.Column)
		}
		return fillConstant(f, s, v)

	case FillConstant:
		return fillConstant(f, s, o.Constant)
	}
	return fmt.Errorf("unknown fill strategy %q", o.Strategy)
}

// upcastForFill converts an int column to float64 in the frame when the fill
// value has a fractional part, matching how pandas widens the dtype instead
// of truncating the fill.
func upcastForFill(f *dataset.Frame, s *dataset.Series, v float64) (*dataset.Series, error) {
	if s.Kind() != dataset.KindInt || v == math.Trunc(v) {
		return s, nil
	}
	up, err := s.Cast(dataset.KindFloat)
	if err != nil {
		return nil, err
	}
	if err := f.ReplaceColumn(s.Name(), up); err != nil {
		return nil, err
	}
	return up, nil
}

// fillConstant writes a rendered value into every null cell, converting to
// the column's kind through a single-cell cast round trip. A fractional
// constant widens an int column to float64.
func fillConstant(f *dataset.Frame, s *dataset.Series, value string) error {
	if s.IsTextual() {
		for i := 0; i < s.Len(); i++ {
			if s.IsNull(i) {
				if err := s.SetString(i, value); err != nil {
					return err
				}
			}
		}
		return nil
	}

	parsed := dataset.NewStringSeries(s.Name(), []string{value})
	cast, err := parsed.Cast(s.Kind())
	if err != nil && s.Kind() == dataset.KindInt {
		if asFloat, ferr := parsed.Cast(dataset.KindFloat); ferr == nil {
			if v, ok := asFloat.Float(0); ok {
				up, uerr := upcastForFill(f, s, v)
				if uerr != nil {
					return uerr
				}
				s, cast, err = up, asFloat, nil
			}
		}
	}
	if err != nil {
		return fmt.Errorf("constant %q does not fit column %q (%s): %w", value, s.Name(), s.Kind(), err)
	}
	v, ok := cast.Float(0)
	if !ok {
		return fmt.Errorf("constant %q does not fit column %q (%s)", value, s.Name(), s.Kind())
	}
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			if err := s.SetFloat(i, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o FillNA) String() string {
	if o.Strategy == FillConstant {
		return fmt.Sprintf("fillna(%s, const, %s)", quoteIfNeeded(o.Column), quote(o.Constant))
	}
	return fmt.Sprintf("fillna(%s, %s)", quoteIfNeeded(o.Column), o.Strategy)
}

// DropDuplicates removes exact duplicate rows, keeping first occurrences.
type DropDuplicates struct{}

func (DropDuplicates) Apply(f *dataset.Frame) error {
	f.DropDuplicates()
	return nil
}

func (DropDuplicates) String() string { return "drop_duplicates()" }

// Clip clamps a numeric column to explicit bounds.
type Clip struct {
	Column string
	Lo, Hi float64
}

func (o Clip) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	if !s.IsNumeric() {
		return fmt.Errorf("clip needs a numeric column, %q is %s", o.Column, s.Kind())
	}
	if o.Lo > o.Hi {
		return fmt.Errorf("clip bounds inverted: %g > %g", o.Lo, o.Hi)
	}
	for i := 0; i < s.Len(); i++ {
		v, has := s.Float(i)
		if !has {
			continue
		}
		if v < o.Lo {
			v = o.Lo
		} else if v > o.Hi {
			v = o.Hi
		} else {
			continue
		}
		if err := s.SetFloat(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (o Clip) String() string {
	return fmt.Sprintf("clip(%s, %g, %g)", quoteIfNeeded(o.Column), o.Lo, o.Hi)
}

// Winsorize clamps a numeric column to its [p, 1-p] quantiles.
type Winsorize struct {
	Column string
	P      float64
}

func (o Winsorize) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	if o.P <= 0 || o.P >= 0.5 {
		return fmt.Errorf("winsorize fraction must be in (0, 0.5), got %g", o.P)
	}
	lo, ok1 := dataset.Quantile(s, o.P)
	hi, ok2 := dataset.Quantile(s, 1-o.P)
	if !ok1 || !ok2 {
		return fmt.Errorf("column %q has no numeric values to winsorize", o.Column)
	}
	return Clip{Column: o.Column, Lo: lo, Hi: hi}.Apply(f)
}

func (o Winsorize) String() string {
	return fmt.Sprintf("winsorize(%s, %g)", quoteIfNeeded(o.Column), o.P)
}

// RemoveOutliers drops rows outside the Tukey fences (k * IQR).
type RemoveOutliers struct {
	Column string
	K      float64
}

func (o RemoveOutliers) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	lo, hi, has := dataset.IQRBounds(s, o.K)
	if !has {
		return fmt.Errorf("column %q has no numeric values for outlier bounds", o.Column)
	}
	keep := make([]bool, f.NumRows())
	for i := range keep {
		v, hasV := s.Float(i)
		keep[i] = !hasV || (v >= lo && v <= hi)
	}
	return f.FilterRows(keep)
}

func (o RemoveOutliers) String() string {
	return fmt.Sprintf("remove_outliers(%s, %g)", quoteIfNeeded(o.Column), o.K)
}

// FlagOutliers adds a boolean companion column marking Tukey-fence outliers.
type FlagOutliers struct {
	Column string
	K      float64
}

func (o FlagOutliers) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	lo, hi, has := dataset.IQRBounds(s, o.K)
	if !has {
		return fmt.Errorf("column %q has no numeric values for outlier bounds", o.Column)
	}
	flags := make([]bool, f.NumRows())
	for i := range flags {
		if v, hasV := s.Float(i); hasV {
			flags[i] = v < lo || v > hi
		}
	}
	return f.AddColumn(dataset.NewBoolSeries(o.Column+"_is_outlier", flags, nil))
}

func (o FlagOutliers) String() string {
	return fmt.Sprintf("flag_outliers(%s, %g)", quoteIfNeeded(o.Column), o.K)
}

// ScaleMethod selects a normalization strategy.
type ScaleMethod string

const (
	ScaleStandard ScaleMethod = "standard"
	ScaleMinMax   ScaleMethod = "minmax"
	ScaleLog      ScaleMethod = "log"
)

// Scale normalizes a numeric column in place; the column becomes float64.
type Scale struct {
	Column string
	Method ScaleMethod
}

func (o Scale) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	if !s.IsNumeric() {
		return fmt.Errorf("scale needs a numeric column, %q is %s", o.Column, s.Kind())
	}
	scaled, err := s.Cast(dataset.KindFloat)
	if err != nil {
		return err
	}

	switch o.Method {
	case ScaleStandard:
		d, has := dataset.DescribeColumn(scaled)
		if !has {
			return fmt.Errorf("column %q has no values to scale", o.Column)
		}
		if d.Std == 0 {
			return fmt.Errorf("column %q has zero variance", o.Column)
		}
		for i := 0; i < scaled.Len(); i++ {
			if v, hasV := scaled.Float(i); hasV {
				if err := scaled.SetFloat(i, (v-d.Mean)/d.Std); err != nil {
					return err
				}
			}
		}
	case ScaleMinMax:
		d, has := dataset.DescribeColumn(scaled)
		if !has {
			return fmt.Errorf("column %q has no values to scale", o.Column)
		}
		if d.Max == d.Min {
			return fmt.Errorf("column %q is constant", o.Column)
		}
		for i := 0; i < scaled.Len(); i++ {
			if v, hasV := scaled.Float(i); hasV {
				if err := scaled.SetFloat(i, (v-d.Min)/(d.Max-d.Min)); err != nil {
					return err
				}
			}
		}
	case ScaleLog:
		for i := 0; i < scaled.Len(); i++ {
			v, hasV := scaled.Float(i)
			if !hasV {
				continue
			}
			if v <= -1 {
				return fmt.Errorf("log transform undefined for value %g in column %q", v, o.Column)
			}
			if err := scaled.SetFloat(i, math.Log1p(v)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown scale method %q", o.Method)
	}
	return f.ReplaceColumn(o.Column, scaled)
}

func (o Scale) String() string {
	return fmt.Sprintf("scale(%s, %s)", quoteIfNeeded(o.Column), o.Method)
}

// MapValues rewrites categorical cells according to from=>to pairs.
type MapValues struct {
	Column   string
	Mappings []Mapping
}

// Mapping is one value rewrite pair.
type Mapping struct {
	From, To string
}

func (o MapValues) Apply(f *dataset.Frame) error {
	s, ok := f.Column(o.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", o.Column)
	}
	if !s.IsTextual() {
		return fmt.Errorf("map_values needs a textual column, %q is %s", o.Column, s.Kind())
	}
	if len(o.Mappings) == 0 {
		return fmt.Errorf("map_values on %q has no mappings", o.Column)
	}
	rewrite := make(map[string]string, len(o.Mappings))
	for _, m := range o.Mappings {
		rewrite[m.From] = m.To
	}
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		if to, hit := rewrite[s.String(i)]; hit {
			if err := s.SetString(i, to); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o MapValues) String() string {
	parts := make([]string, len(o.Mappings))
	for i, m := range o.Mappings {
		parts[i] = fmt.Sprintf("%s=>%s", quote(m.From), quote(m.To))
	}
	return fmt.Sprintf("map_values(%s, %s)", quoteIfNeeded(o.Column), strings.Join(parts, ", "))
}

// Derive evaluates an arithmetic formula over existing columns and appends
// the result as a new float column. Rows where any referenced cell is null
// yield a null result cell.
type Derive struct {
	Name    string
	Formula string
}

func (o Derive) Apply(f *dataset.Frame) error {
	expr, err := ParseFormula(o.Formula)
	if err != nil {
		return fmt.Errorf("formula: %w", err)
	}
	vals := make([]float64, f.NumRows())
	null := make([]bool, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		v, has, evalErr := expr.eval(f, i)
		if evalErr != nil {
			return fmt.Errorf("formula at row %d: %w", i, evalErr)
		}
		if !has {
			null[i] = true
			continue
		}
		vals[i] = v
	}
	return f.AddColumn(dataset.NewFloatSeries(o.Name, vals, null))
}

func (o Derive) String() string {
	return fmt.Sprintf("derive(%s, %s)", quoteIfNeeded(o.Name), o.Formula)
}

func quote(v string) string { return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"` }

// quoteIfNeeded quotes identifiers that would not survive the tokenizer bare.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}
	for _, r := range v {
		if !(r == '_' || r == '-' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return quote(v)
		}
	}
	return v
}
