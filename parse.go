package arith

import (
	"sort"
	"strings"
)

// Expr = Term { ('+' | '-') Term }
// Term = Pow { ('*' | '/' | '%') Pow }
// Pow = Factor { '^' Factor }
// Factor = num | name | '(' Expr ')'
//
// Every level, including Pow, is left-associative: 2^3^2 is (2^3)^2.

// Expr is a parsed expression.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// consts is the sorted list of constant names used in the expression.
	consts []string
}

// parser is a cursor over a token sequence. It is discarded after one parse.
type parser struct {
	toks   []Token
	pos    int
	consts map[string]float64
}

// Parse parses a token sequence as produced by Lex into an expression. The
// given options are applied in order. If toks does not end in TokenEOF, the
// parser behaves as though it did. All errors are *SyntaxError.
func Parse(toks []Token, opts ...ParseOption) (*Expr, error) {
	var pc parsectx
	for _, opt := range opts {
		pc = opt.parseOption(pc)
	}
	if pc.consts == nil {
		pc.consts = globalconsts
	}
	p := parser{toks: toks, consts: pc.consts}
	if tok := p.peek(); tok.Kind == TokenEOF {
		return nil, &SyntaxError{Kind: ErrEmpty, Col: tok.Col}
	}
	n, err := p.expression()
	if err != nil {
		return nil, err
	}
	// expression only stops at EOF or a close bracket, and at the top level
	// the latter has no partner.
	if tok := p.next(); tok.Kind != TokenEOF {
		return nil, &SyntaxError{Kind: ErrBracket, Col: tok.Col, Text: tok.Text}
	}
	return newExpr(n), nil
}

// ParseString is a shortcut to lex and parse a string expression.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	toks, err := Lex(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return Parse(toks, opts...)
}

func newExpr(n *node) *Expr {
	seen := make(map[string]bool)
	n.walk(func(n *node) {
		if n.kind == nodeConst {
			seen[n.name] = true
		}
	})
	ex := Expr{n: n, consts: make([]string, 0, len(seen))}
	for k := range seen {
		ex.consts = append(ex.consts, k)
	}
	sort.Strings(ex.consts)
	return &ex
}

// peek returns the next token without consuming it. Past the end of the
// sequence, the result is an EOF token.
func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		col := 1
		if len(p.toks) > 0 {
			last := p.toks[len(p.toks)-1]
			col = last.Col + len(last.Text)
		}
		return Token{Kind: TokenEOF, Col: col}
	}
	return p.toks[p.pos]
}

// next consumes and returns the next token.
func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

// expression parses terms separated by + and -. It stops without consuming at
// EOF or a close bracket; any other token after a term is an error.
func (p *parser) expression() (*node, error) {
	n, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenAdd, TokenSub:
			p.next()
			op, err := toOperator(tok)
			if err != nil {
				return nil, err
			}
			rhs, err := p.term()
			if err != nil {
				return nil, err
			}
			n = &node{kind: op, left: n, right: rhs}
		case TokenEOF, TokenClose:
			return n, nil
		default:
			return nil, &SyntaxError{Kind: ErrUnexpected, Col: tok.Col, Text: tok.Text}
		}
	}
}

// term parses exponentiations separated by *, /, and %. Anything else is left
// for expression to judge.
func (p *parser) term() (*node, error) {
	n, err := p.exponent()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenMul, TokenDiv, TokenMod:
			p.next()
			op, err := toOperator(tok)
			if err != nil {
				return nil, err
			}
			rhs, err := p.exponent()
			if err != nil {
				return nil, err
			}
			n = &node{kind: op, left: n, right: rhs}
		default:
			return n, nil
		}
	}
}

// exponent parses factors separated by ^, folding to the left.
func (p *parser) exponent() (*node, error) {
	n, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != TokenPow {
			return n, nil
		}
		p.next()
		op, err := toOperator(tok)
		if err != nil {
			return nil, err
		}
		rhs, err := p.factor()
		if err != nil {
			return nil, err
		}
		n = &node{kind: op, left: n, right: rhs}
	}
}

// factor consumes a number, a constant name, or a bracketed expression.
func (p *parser) factor() (*node, error) {
	tok := p.next()
	switch tok.Kind {
	case TokenNum:
		return &node{kind: nodeNum, name: tok.Text, val: tok.Val}, nil
	case TokenIdent:
		v, ok := p.consts[tok.Text]
		if !ok {
			return nil, &SyntaxError{Kind: ErrName, Col: tok.Col, Text: tok.Text}
		}
		return &node{kind: nodeConst, name: tok.Text, val: v}, nil
	case TokenOpen:
		n, err := p.expression()
		if err != nil {
			return nil, err
		}
		end := p.next()
		if end.Kind != TokenClose {
			return nil, &SyntaxError{Kind: ErrBracket, Col: end.Col, Text: end.Text}
		}
		return n, nil
	case TokenEOF:
		return nil, &SyntaxError{Kind: ErrEnd, Col: tok.Col}
	default:
		return nil, &SyntaxError{Kind: ErrUnexpected, Col: tok.Col, Text: tok.Text}
	}
}

// toOperator maps an operator token to its node kind.
func toOperator(tok Token) (nodeKind, error) {
	switch tok.Kind {
	case TokenAdd:
		return nodeAdd, nil
	case TokenSub:
		return nodeSub, nil
	case TokenMul:
		return nodeMul, nil
	case TokenDiv:
		return nodeDiv, nil
	case TokenMod:
		return nodeMod, nil
	case TokenPow:
		return nodePow, nil
	default:
		return nodeNone, &SyntaxError{Kind: ErrOperator, Col: tok.Col, Text: tok.Text}
	}
}

// Consts returns the names of the constants used in the expression, sorted.
func (e *Expr) Consts() []string {
	return append(([]string)(nil), e.consts...)
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	return e.n.String()
}
