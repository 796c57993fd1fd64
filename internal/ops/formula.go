// File: internal/ops/formula.go
package ops

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/adelmore/scour-cli/internal/dataset"
)

// Formula is a parsed arithmetic expression over columns: identifiers,
// numeric literals, + - * /, unary minus and parentheses. It is the only
// free-form surface of the instruction language, and it can do nothing but
// arithmetic on the frame it is evaluated against.
type Formula struct {
	root exprNode
	src  string
}

// ParseFormula compiles an expression. Column references are resolved at
// evaluation time, so a formula can legally reference a column created
// earlier in the same apply step.
func ParseFormula(src string) (*Formula, error) {
	toks, err := lexFormula(src)
	if err != nil {
		return nil, err
	}
	p := &formulaParser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.peek().text)
	}
	return &Formula{root: root, src: src}, nil
}

func (f *Formula) String() string { return f.src }

// Columns lists the column names the formula references, in first-use order.
func (f *Formula) Columns() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(n exprNode)
	walk = func(n exprNode) {
		switch v := n.(type) {
		case colNode:
			if !seen[string(v)] {
				seen[string(v)] = true
				out = append(out, string(v))
			}
		case binNode:
			walk(v.l)
			walk(v.r)
		case negNode:
			walk(v.inner)
		}
	}
	walk(f.root)
	return out
}

// eval computes the formula for row i. has is false when any referenced cell
// is null or the computation hits a domain error (division by zero).
func (f *Formula) eval(frame *dataset.Frame, i int) (v float64, has bool, err error) {
	return f.root.eval(frame, i)
}

type exprNode interface {
	eval(f *dataset.Frame, row int) (float64, bool, error)
}

type numNode float64

func (n numNode) eval(*dataset.Frame, int) (float64, bool, error) { return float64(n), true, nil }

type colNode string

func (c colNode) eval(f *dataset.Frame, row int) (float64, bool, error) {
	s, ok := f.Column(string(c))
	if !ok {
		return 0, false, fmt.Errorf("unknown column %q", string(c))
	}
	if !s.IsNumeric() && s.Kind() != dataset.KindBool {
		return 0, false, fmt.Errorf("column %q is %s, not numeric", string(c), s.Kind())
	}
	v, has := s.Float(row)
	return v, has, nil
}

type binNode struct {
	op   byte
	l, r exprNode
}

func (b binNode) eval(f *dataset.Frame, row int) (float64, bool, error) {
	lv, lhas, err := b.l.eval(f, row)
	if err != nil {
		return 0, false, err
	}
	rv, rhas, err := b.r.eval(f, row)
	if err != nil {
		return 0, false, err
	}
	if !lhas || !rhas {
		return 0, false, nil
	}
	switch b.op {
	case '+':
		return lv + rv, true, nil
	case '-':
		return lv - rv, true, nil
	case '*':
		return lv * rv, true, nil
	case '/':
		if rv == 0 {
			// Null, not an abort: one divide-by-zero row should not sink the
			// whole derivation.
			return 0, false, nil
		}
		return lv / rv, true, nil
	}
	return 0, false, fmt.Errorf("unknown operator %q", string(b.op))
}

type negNode struct{ inner exprNode }

func (n negNode) eval(f *dataset.Frame, row int) (float64, bool, error) {
	v, has, err := n.inner.eval(f, row)
	return -v, has, err
}

// -- lexer --

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func lexFormula(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case strings.ContainsRune("+-*/", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == 'e' || rs[j] == 'E' ||
				((rs[j] == '+' || rs[j] == '-') && (rs[j-1] == 'e' || rs[j-1] == 'E'))) {
				j++
			}
			text := string(rs[i:j])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", text)
			}
			toks = append(toks, token{kind: tokNum, text: text, num: v})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

// -- parser (precedence climbing) --

type formulaParser struct {
	toks []token
	pos  int
}

func (p *formulaParser) peek() token { return p.toks[p.pos] }
func (p *formulaParser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *formulaParser) atEnd() bool { return p.peek().kind == tokEOF }

func (p *formulaParser) parseExpr() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text[0]
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *formulaParser) parseTerm() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text[0]
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *formulaParser) parseFactor() (exprNode, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return numNode(t.num), nil
	case tokIdent:
		return colNode(t.text), nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	case tokOp:
		if t.text == "-" {
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return negNode{inner: inner}, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}
