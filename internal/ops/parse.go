// File: internal/ops/parse.go
package ops

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adelmore/scour-cli/internal/dataset"
)

// Default Tukey-fence multiplier and winsorization fraction, used when the
// statement omits them.
const (
	defaultIQRMultiplier = 1.5
	defaultWinsorizeP    = 0.05
)

var stmtRegex = regexp.MustCompile(`(?s)^\s*([a-z_]+)\s*\((.*)\)\s*;?\s*$`)

// Parse lowers one statement of the instruction language to an executable Op.
// Anything outside the closed grammar is a parse error; there is no escape
// hatch to arbitrary execution.
func Parse(code string) (Op, error) {
	m := stmtRegex.FindStringSubmatch(code)
	if m == nil {
		return nil, fmt.Errorf("not a recognized statement: %q", strings.TrimSpace(code))
	}
	name, rawArgs := m[1], m[2]
	args, err := splitArgs(rawArgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	switch name {
	case "noop":
		if err := arity(name, args, 0, 0); err != nil {
			return nil, err
		}
		return NoOp{}, nil

	case "cast":
		if err := arity(name, args, 2, 2); err != nil {
			return nil, err
		}
		kind, err := parseKind(unquote(args[1]))
		if err != nil {
			return nil, err
		}
		return Cast{Column: unquote(args[0]), Target: kind}, nil

	case "drop_rows":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return DropRows{Column: unquote(args[0])}, nil

	case "drop_column":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return DropColumn{Column: unquote(args[0])}, nil

	case "fillna":
		if err := arity(name, args, 2, 3); err != nil {
			return nil, err
		}
		strategy := FillStrategy(unquote(args[1]))
		switch strategy {
		case FillMean, FillMedian, FillMode:
			if len(args) != 2 {
				return nil, fmt.Errorf("fillna %s takes no constant", strategy)
			}
			return FillNA{Column: unquote(args[0]), Strategy: strategy}, nil
		case FillConstant:
			if len(args) != 3 {
				return nil, fmt.Errorf("fillna const requires a value")
			}
			return FillNA{Column: unquote(args[0]), Strategy: FillConstant, Constant: unquote(args[2])}, nil
		}
		return nil, fmt.Errorf("unknown fill strategy %q", args[1])

	case "drop_duplicates":
		if err := arity(name, args, 0, 0); err != nil {
			return nil, err
		}
		return DropDuplicates{}, nil

	case "clip":
		if err := arity(name, args, 3, 3); err != nil {
			return nil, err
		}
		lo, err := parseNum(unquote(args[1]))
		if err != nil {
			return nil, err
		}
		hi, err := parseNum(unquote(args[2]))
		if err != nil {
			return nil, err
		}
		return Clip{Column: unquote(args[0]), Lo: lo, Hi: hi}, nil

	case "winsorize":
		if err := arity(name, args, 1, 2); err != nil {
			return nil, err
		}
		p := defaultWinsorizeP
		if len(args) == 2 {
			var err error
			if p, err = parseNum(unquote(args[1])); err != nil {
				return nil, err
			}
		}
		return Winsorize{Column: unquote(args[0]), P: p}, nil

	case "remove_outliers":
		if err := arity(name, args, 1, 2); err != nil {
			return nil, err
		}
		k := defaultIQRMultiplier
		if len(args) == 2 {
			var err error
			if k, err = parseNum(unquote(args[1])); err != nil {
				return nil, err
			}
		}
		return RemoveOutliers{Column: unquote(args[0]), K: k}, nil

	case "flag_outliers":
		if err := arity(name, args, 1, 2); err != nil {
			return nil, err
		}
		k := defaultIQRMultiplier
		if len(args) == 2 {
			var err error
			if k, err = parseNum(unquote(args[1])); err != nil {
				return nil, err
			}
		}
		return FlagOutliers{Column: unquote(args[0]), K: k}, nil

	case "scale":
		if err := arity(name, args, 2, 2); err != nil {
			return nil, err
		}
		method := ScaleMethod(unquote(args[1]))
		switch method {
		case ScaleStandard, ScaleMinMax, ScaleLog:
			return Scale{Column: unquote(args[0]), Method: method}, nil
		}
		return nil, fmt.Errorf("unknown scale method %q", args[1])

	case "map_values":
		if err := arity(name, args, 2, -1); err != nil {
			return nil, err
		}
		mappings := make([]Mapping, 0, len(args)-1)
		for _, arg := range args[1:] {
			from, to, ok := splitMapping(arg)
			if !ok {
				return nil, fmt.Errorf("bad mapping %q, want from=>to", arg)
			}
			mappings = append(mappings, Mapping{From: from, To: to})
		}
		return MapValues{Column: unquote(args[0]), Mappings: mappings}, nil

	case "derive":
		if err := arity(name, args, 2, 2); err != nil {
			return nil, err
		}
		formula := unquote(args[1])
		if _, err := ParseFormula(formula); err != nil {
			return nil, fmt.Errorf("derive formula: %w", err)
		}
		return Derive{Name: unquote(args[0]), Formula: formula}, nil
	}

	return nil, fmt.Errorf("unknown operation %q", name)
}

func arity(name string, args []string, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		if min == max {
			return fmt.Errorf("%s expects %d argument(s), got %d", name, min, len(args))
		}
		return fmt.Errorf("%s expects %d..%d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func parseKind(arg string) (dataset.Kind, error) {
	switch arg {
	case "int64":
		return dataset.KindInt, nil
	case "float64":
		return dataset.KindFloat, nil
	case "datetime", "datetime64", "datetime64[ns]":
		return dataset.KindTime, nil
	case "category":
		return dataset.KindCategory, nil
	case "string", "str":
		return dataset.KindString, nil
	case "bool":
		return dataset.KindBool, nil
	}
	return "", fmt.Errorf("unknown data type %q", arg)
}

func parseNum(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", arg)
	}
	return v, nil
}

// splitArgs breaks an argument list at top-level commas, honoring double
// quotes and nested parentheses (formulas). Quote markers survive the split
// so later boundaries (mapping arrows) can still tell quoted text apart;
// unquote resolves them per argument.
func splitArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var args []string
	var cur strings.Builder
	depth := 0
	inQuote := false

	flush := func() {
		args = append(args, strings.TrimSpace(cur.String()))
		cur.Reset()
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case inQuote:
			if ch == '\\' && i+1 < len(raw) {
				cur.WriteByte(ch)
				cur.WriteByte(raw[i+1])
				i++
				continue
			}
			if ch == '"' {
				inQuote = false
			}
			cur.WriteByte(ch)
		case ch == '"':
			inQuote = true
			cur.WriteByte(ch)
		case ch == '(':
			depth++
			cur.WriteByte(ch)
		case ch == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			cur.WriteByte(ch)
		case ch == ',' && depth == 0:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	flush()
	return args, nil
}

// unquote strips the surrounding double quotes of a fully quoted argument and
// resolves backslash escapes. Bare arguments pass through untouched.
func unquote(arg string) string {
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return arg
	}
	var b strings.Builder
	for i := 1; i < len(arg)-1; i++ {
		if arg[i] == '\\' && i+1 < len(arg)-1 {
			i++
			b.WriteByte(arg[i])
			continue
		}
		if arg[i] == '"' {
			// An interior unescaped quote means this is not one token.
			return arg
		}
		b.WriteByte(arg[i])
	}
	return b.String()
}

// splitMapping breaks a from=>to pair at the first arrow outside quotes, so
// a quoted value may itself contain "=>".
func splitMapping(arg string) (from, to string, ok bool) {
	inQuote := false
	for i := 0; i < len(arg); i++ {
		switch {
		case inQuote:
			if arg[i] == '\\' && i+1 < len(arg) {
				i++
				continue
			}
			if arg[i] == '"' {
				inQuote = false
			}
		case arg[i] == '"':
			inQuote = true
		case arg[i] == '=' && i+1 < len(arg) && arg[i+1] == '>':
			return unquote(strings.TrimSpace(arg[:i])), unquote(strings.TrimSpace(arg[i+2:])), true
		}
	}
	return "", "", false
}
