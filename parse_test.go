package arith

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// diff finds the first in-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. Literals are compared by value, not by text. If any
// node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind {
		return n, m
	}
	switch n.kind {
	case nodeNum:
		if n.val != m.val {
			return n, m
		}
	case nodeConst:
		if n.name != m.name || n.val != m.val {
			return n, m
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	default:
		panic(fmt.Errorf("invalid node kind: n=%+v m=%+v", n, m))
	}
	return nil, nil
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	found := false
	n.walk(func(n *node) {
		found = found || n.kind == k
	})
	return found
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(1)", "1"},
		{"multi", "((((1))))", "1"},
		{"spaces", " 1 +\t2 ", "1+2"},

		{"add", "1+2", "((1)+(2))"},
		{"sub", "1-2", "((1)-(2))"},
		{"mul", "1*2", "((1)*(2))"},
		{"div", "1/2", "((1)/(2))"},
		{"mod", "1%2", "((1)%(2))"},
		{"pow", "1^2", "((1)^(2))"},

		{"add4", "1+2+3+4", "((1+2)+3)+4"},
		{"sub4", "1-2-3-4", "((1-2)-3)-4"},
		{"mul4", "1*2*3*4", "((1*2)*3)*4"},
		{"div4", "1/2/3/4", "((1/2)/3)/4"},
		{"mod4", "1%2%3%4", "((1%2)%3)%4"},
		{"pow4", "1^2^3^4", "((1^2)^3)^4"},
		{"addsub", "1+2-3+4", "((1+2)-3)+4"},
		{"muldivmod", "1*2/3%4", "((1*2)/3)%4"},

		{"desc", "1^2*3+4", "((1^2)*3)+4"},
		{"asc", "1+2*3^4", "1+(2*(3^4))"},
		{"descasc", "1^2*3+4+5*6^7", "(((1^2)*3)+4)+(5*(6^7))"},
		{"ascdesc", "1+2*3^4^5*6+7", "(1+((2*((3^4)^5))*6))+7"},
		{"mulfirst", "2*3+4", "(2*3)+4"},
		{"mullast", "2+3*4", "2+(3*4)"},
		{"override", "(2+3)*4", "(2+3)*4"},
		{"powparen", "2^(3^2)", "2^(3^2)"},
		{"modpow", "2%3^4", "2%(3^4)"},

		{"const", "pi", "(pi)"},
		{"constexpr", "2*pi+e", "(2*pi)+e"},
		{"numtext", "1.0", "1"},
		{"leadingdot", ".5", "0.5"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.a)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := ParseString(c.b)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *node
	}{
		{
			name: "num",
			src:  "2.5",
			n:    &node{kind: nodeNum, name: "2.5", val: 2.5},
		},
		{
			name: "sub-left",
			src:  "10 - 2 - 3",
			n: &node{
				kind: nodeSub,
				left: &node{
					kind:  nodeSub,
					left:  &node{kind: nodeNum, name: "10", val: 10},
					right: &node{kind: nodeNum, name: "2", val: 2},
				},
				right: &node{kind: nodeNum, name: "3", val: 3},
			},
		},
		{
			name: "pow-left",
			src:  "2^3^2",
			n: &node{
				kind: nodePow,
				left: &node{
					kind:  nodePow,
					left:  &node{kind: nodeNum, name: "2", val: 2},
					right: &node{kind: nodeNum, name: "3", val: 3},
				},
				right: &node{kind: nodeNum, name: "2", val: 2},
			},
		},
		{
			name: "const",
			src:  "(pi)",
			n:    &node{kind: nodeConst, name: "pi", val: globalconsts["pi"]},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.src, err)
			}
			if diff := cmp.Diff(c.n, a.n, cmp.AllowUnexported(node{})); diff != "" {
				t.Errorf("%q parsed wrong (-want +got):\n%s", c.src, diff)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	srcs := []string{
		"1",
		"2 + 3 * 4",
		"(2 + 3) * 4 ^ pi % e",
		"((1 - 2) / (3 - 4)) ^ 0.5",
	}
	for _, src := range srcs {
		toks, err := LexString(src)
		if err != nil {
			t.Fatalf("%q failed to lex: %v", src, err)
		}
		orig := append([]Token(nil), toks...)
		a, err := Parse(toks)
		if err != nil {
			t.Fatalf("%q failed to parse: %v", src, err)
		}
		b, err := Parse(toks)
		if err != nil {
			t.Fatalf("%q failed to parse the second time: %v", src, err)
		}
		if diff := cmp.Diff(a.n, b.n, cmp.AllowUnexported(node{})); diff != "" {
			t.Errorf("%q parsed differently the second time (-first +second):\n%s", src, diff)
		}
		if diff := cmp.Diff(orig, toks); diff != "" {
			t.Errorf("%q: Parse modified its tokens (-before +after):\n%s", src, diff)
		}
	}
}

func TestParseNoEOF(t *testing.T) {
	// Token sequences not from Lex may lack the EOF sentinel.
	toks := []Token{
		{Kind: TokenNum, Text: "2", Val: 2, Col: 1},
		{Kind: TokenAdd, Text: "+", Col: 2},
		{Kind: TokenNum, Text: "3", Val: 3, Col: 3},
	}
	a, err := Parse(toks)
	if err != nil {
		t.Fatalf("failed to parse %v: %v", toks, err)
	}
	if !a.n.haskind(nodeAdd) {
		t.Errorf("%v has no addition", a)
	}
	_, err = Parse(toks[:2])
	se, ok := err.(*SyntaxError)
	if !ok || se.Kind != ErrEnd || se.Col != 3 {
		t.Errorf("wrong error for %v: %#v", toks[:2], err)
	}
	_, err = Parse(nil)
	if se, ok := err.(*SyntaxError); !ok || se.Kind != ErrEmpty {
		t.Errorf("wrong error for no tokens: %#v", err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind ErrorKind
		col  int
		res  []string
	}{
		{"empty", "", ErrEmpty, 1, []string{`(?i)\bempty\b`}},
		{"blank", "   ", ErrEmpty, 4, []string{`(?i)\bempty\b`}},
		{"end", "2 +", ErrEnd, 4, []string{`(?i)\bend of input\b`}},
		{"endmul", "2 *", ErrEnd, 4, []string{`(?i)\bend of input\b`}},
		{"endpow", "2^", ErrEnd, 3, []string{`(?i)\bend of input\b`}},
		{"left", "(2 + 3", ErrBracket, 7, []string{`(?i)\bclos`, `(?i)\bbracket\b`, `\(`}},
		{"leftnested", "((2)", ErrBracket, 5, []string{`(?i)\bbracket\b`}},
		{"right", "2 + 3)", ErrBracket, 6, []string{`(?i)\bbracket\b`, `\)`}},
		{"rightonly", ")", ErrUnexpected, 1, []string{`\)`}},
		{"emptyparen", "()", ErrUnexpected, 2, []string{`\)`}},
		{"unary", "-5", ErrUnexpected, 1, []string{`"-"`}},
		{"unaryparen", "2 * (-5)", ErrUnexpected, 6, []string{`"-"`}},
		{"doubleop", "2 + * 3", ErrUnexpected, 5, []string{`"\*"`}},
		{"adjacent", "2 3", ErrUnexpected, 3, []string{`"3"`}},
		{"implicitmul", "2 (3)", ErrUnexpected, 3, []string{`"\("`}},
		{"implicitconst", "2 pi", ErrUnexpected, 3, []string{`"pi"`}},
		{"insideparen", "(2 3)", ErrUnexpected, 4, []string{`"3"`}},
		{"name", "pie", ErrName, 1, []string{`(?i)\bunidentified\b`, `(?i)\bvariable\b`, `"pie"`}},
		{"namecase", "PI", ErrName, 1, []string{`"PI"`}},
		{"namelater", "1 + x", ErrName, 5, []string{`"x"`}},
		{"lexer", "2 $ 3", ErrChar, 3, []string{`(?i)\bunrecognized\b`, `\$`}},
		{"number", "1.2.3 + 1", ErrNumber, 1, []string{`1\.2\.3`}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a)
			}
			se, ok := err.(*SyntaxError)
			if !ok {
				t.Fatalf("wrong error type from %q: want *SyntaxError, got %T", c.src, err)
			}
			if se.Kind != c.kind {
				t.Errorf("wrong error kind from %q: want %d, got %d (%v)", c.src, c.kind, se.Kind, se)
			}
			if se.Pos() != c.col {
				t.Errorf("wrong error position from %q: want %d, got %d (%v)", c.src, c.col, se.Pos(), se)
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
		})
	}
}

func TestToOperator(t *testing.T) {
	ops := map[TokenKind]nodeKind{
		TokenAdd: nodeAdd,
		TokenSub: nodeSub,
		TokenMul: nodeMul,
		TokenDiv: nodeDiv,
		TokenMod: nodeMod,
		TokenPow: nodePow,
	}
	for k := TokenEOF; k <= TokenClose; k++ {
		op, err := toOperator(Token{Kind: k, Text: "t", Col: 9})
		want, isop := ops[k]
		if !isop {
			se, ok := err.(*SyntaxError)
			if !ok || se.Kind != ErrOperator || se.Col != 9 {
				t.Errorf("%v: want operator error, got %v, %#v", k, op, err)
			}
			if ok && !strings.Contains(se.Error(), "operator expected") {
				t.Errorf("%v: message %q doesn't say operator expected", k, se.Error())
			}
			continue
		}
		if err != nil || op != want {
			t.Errorf("%v: want %v, got %v, %v", k, want, op, err)
		}
	}
}

func TestParseConsts(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		opts   []ParseOption
		consts []string
		err    bool
	}{
		{"default", "pi * e", nil, []string{"e", "pi"}, false},
		{"repeated", "pi + pi", nil, []string{"pi"}, false},
		{"none", "1 + 2", nil, nil, false},
		{"added", "tau / 2", []ParseOption{ParseConst("tau", 6.28)}, []string{"tau"}, false},
		{"addedmany", "g * c", []ParseOption{ParseConsts(map[string]float64{"g": 9.8, "c": 3e8})}, []string{"c", "g"}, false},
		{"disabled", "pi", []ParseOption{DisableDefaultConsts()}, nil, true},
		{"readded", "pi", []ParseOption{DisableDefaultConsts(), ParseConst("pi", 3)}, []string{"pi"}, false},
		{"keepsdefaults", "pi + k", []ParseOption{ParseConst("k", 1)}, []string{"k", "pi"}, false},
		{"preset", "k + pi", []ParseOption{ParsingPreset(ParseConst("k", 1))}, []string{"k", "pi"}, false},
		{"presetafter", "k + j", []ParseOption{ParsingPreset(ParseConst("k", 1)), ParseConst("j", 2)}, []string{"j", "k"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src, c.opts...)
			if c.err {
				if se, ok := err.(*SyntaxError); !ok || se.Kind != ErrName {
					t.Errorf("%q: want name error, got %#v", c.src, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := a.Consts(); !reflect.DeepEqual(c.consts, v) {
				t.Errorf("%q gave wrong constants: want %q, got %q", c.src, c.consts, v)
			}
		})
	}
}

func TestParseConstOverride(t *testing.T) {
	a, err := ParseString("pi", ParseConst("pi", 3))
	if err != nil {
		t.Fatal(err)
	}
	if a.n.val != 3 {
		t.Errorf("pi overridden to 3 parsed as %v", a.n.val)
	}
	// Options must not leak into the defaults.
	if globalconsts["pi"] == 3 {
		t.Error("ParseConst modified the default table")
	}
}

func TestPresetShared(t *testing.T) {
	preset := ParsingPreset(ParseConst("k", 1))
	if _, err := ParseString("j", preset, ParseConst("j", 2)); err != nil {
		t.Fatal(err)
	}
	// j was added after the preset and must not stick to it.
	if _, err := ParseString("j", preset); err == nil {
		t.Error("option applied after a preset modified the preset")
	}
}

func TestInvalidConstName(t *testing.T) {
	names := []string{"", "x1", "two words", "π", "_"}
	for _, name := range names {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ParseConst(%q) didn't panic", name)
				}
			}()
			ParseConst(name, 1)
		}()
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ParseConsts with %q didn't panic", name)
				}
			}()
			ParseConsts(map[string]float64{name: 1})
		}()
	}
}

func TestDefaultConsts(t *testing.T) {
	m := DefaultConsts()
	if m["pi"] != math.Pi || m["e"] != math.E || len(m) != 2 {
		t.Errorf("wrong default constants %v", m)
	}
	m["pi"] = 3
	if globalconsts["pi"] != math.Pi {
		t.Error("DefaultConsts shares the global table")
	}
	for name := range m {
		if !ValidConstName(name) {
			t.Errorf("default constant %q has an invalid name", name)
		}
	}
	if !ValidConstName("Tau") {
		t.Error("Tau rejected")
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1", "(1)"},
		{"1 + 2", "([1] + [2])"},
		{"1 + 2 * 3", "([1] + [(2) * (3)])"},
		{"2^3^2", "([(2) ^ (3)] ^ [2])"},
		{"(pi)", "(pi)"},
	}
	for _, c := range cases {
		a, err := ParseString(c.src)
		if err != nil {
			t.Fatalf("%q failed to parse: %v", c.src, err)
		}
		if got := a.String(); got != c.want {
			t.Errorf("%q formatted as %q, want %q", c.src, got, c.want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "1^2*3+4+5*6^7"},
		{"descasc-parens", "(((1^2)*3)+4)+5*(6^7)"},
		{"ascdesc", "1+2*3^4^5*6+7"},
		{"consts", "pi*e+pi/e"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			toks, err := LexString(c.src)
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < b.N; i++ {
				Parse(toks)
			}
		})
	}
}
