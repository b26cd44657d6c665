package arith

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Token is a single lexical unit of an expression.
type Token struct {
	// Kind is the type of the token.
	Kind TokenKind
	// Text is the source text of the token. It is empty for TokenEOF.
	Text string
	// Val is the value of a TokenNum.
	Val float64
	// Col is the rune column at which the token starts, counting from 1.
	Col int
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Col)
}

// TokenKind is the type of a token.
type TokenKind int8

const (
	tokenNone TokenKind = iota
	// TokenEOF marks the end of the input. Lex always ends its result with
	// exactly one TokenEOF.
	TokenEOF
	// TokenNum is a number literal.
	TokenNum
	// TokenIdent is a constant name.
	TokenIdent
	TokenAdd   // +
	TokenSub   // -
	TokenMul   // *
	TokenDiv   // /
	TokenMod   // %
	TokenPow   // ^
	TokenOpen  // (
	TokenClose // )
)

var tokenKindNames = [...]string{
	tokenNone:  "None",
	TokenEOF:   "EOF",
	TokenNum:   "Num",
	TokenIdent: "Ident",
	TokenAdd:   "Add",
	TokenSub:   "Sub",
	TokenMul:   "Mul",
	TokenDiv:   "Div",
	TokenMod:   "Mod",
	TokenPow:   "Pow",
	TokenOpen:  "Open",
	TokenClose: "Close",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// Operators contains the runes which are lexed as operators or brackets, in
// the order of their token kinds starting at TokenAdd.
const Operators = "+-*/%^()"

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	toks []Token
}

// Lex scans the whole of src into tokens. The result always ends with a
// TokenEOF. If any rune cannot be lexed, the result is nil and the error is a
// *SyntaxError.
func Lex(src io.RuneScanner) ([]Token, error) {
	l := lexer{src: src}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.Kind == TokenEOF {
			return l.toks, nil
		}
	}
}

// LexString is a shortcut to lex a string.
func LexString(src string) ([]Token, error) {
	return Lex(strings.NewReader(src))
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input.
func (l *lexer) next() (Token, error) {
	defer l.buf.Reset()
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{Kind: TokenEOF, Col: l.rune + 1}, nil
			}
			return Token{}, err
		}
		col := l.rune
		switch {
		case unicode.IsSpace(r):
			continue
		case isDigit(r), r == '.':
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return Token{}, err
			}
			text := l.buf.String()
			// Overlong runs of digits round to Inf rather than failing.
			v, err := strconv.ParseFloat(text, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return Token{}, &SyntaxError{Kind: ErrNumber, Col: col, Text: text}
			}
			return Token{Kind: TokenNum, Text: text, Val: v, Col: col}, nil
		case isLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return Token{}, err
			}
			return Token{Kind: TokenIdent, Text: l.buf.String(), Col: col}, nil
		default:
			if k := strings.IndexRune(Operators, r); k >= 0 {
				return Token{Kind: TokenAdd + TokenKind(k), Text: string(r), Col: col}, nil
			}
			return Token{}, &SyntaxError{Kind: ErrChar, Col: col, Text: string(r)}
		}
	}
}

// scanNum writes the maximal run of digits and decimal points to the buffer.
// Whether the run is a valid number is for the caller to decide.
func (l *lexer) scanNum() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !isDigit(r) && r != '.' {
			l.unreadRune()
			return nil
		}
		l.buf.WriteRune(r)
	}
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		if !isLetter(r) {
			l.unreadRune()
			return nil
		}
		l.buf.WriteRune(r)
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}
