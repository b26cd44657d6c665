package arith

import (
	"math/big"
	"strconv"
)

// ErrorKind classifies a SyntaxError.
type ErrorKind int8

const (
	// ErrChar is a rune that begins no token.
	ErrChar ErrorKind = iota + 1
	// ErrNumber is a run of digits and decimal points that is not a number,
	// e.g. "." or "1.2.3".
	ErrNumber
	// ErrOperator is a token used as a binary operator which is not one.
	ErrOperator
	// ErrUnexpected is a token that cannot appear where it was found.
	ErrUnexpected
	// ErrBracket is an open bracket with no close bracket or vice versa.
	ErrBracket
	// ErrEnd is input that ended where an operand was required.
	ErrEnd
	// ErrEmpty is input with no tokens at all.
	ErrEmpty
	// ErrName is an identifier that names no constant.
	ErrName
)

// SyntaxError is the error for any input which cannot be lexed or parsed. It
// implements InputError.
type SyntaxError struct {
	// Kind is the reason for the error.
	Kind ErrorKind
	// Col is the rune column of the token or rune that caused the error.
	Col int
	// Text is the offending source text. It is empty if the error was caused
	// by the end of input.
	Text string
}

func (err *SyntaxError) Error() string {
	switch err.Kind {
	case ErrChar:
		return errpos(err.Col, "unrecognized character "+strconv.Quote(err.Text))
	case ErrNumber:
		return errpos(err.Col, "invalid number "+strconv.Quote(err.Text))
	case ErrOperator:
		return errpos(err.Col, "operator expected, got "+describe(err.Text))
	case ErrUnexpected:
		return errpos(err.Col, "unexpected "+describe(err.Text))
	case ErrBracket:
		if err.Text == ")" {
			return errpos(err.Col, "close bracket ) with no open bracket")
		}
		return errpos(err.Col, "open bracket ( with no close bracket, got "+describe(err.Text))
	case ErrEnd:
		return errpos(err.Col, "unexpected end of input, expected number or opening bracket")
	case ErrEmpty:
		return errpos(err.Col, "empty expression")
	case ErrName:
		return errpos(err.Col, "unidentified variable "+strconv.Quote(err.Text))
	default:
		return errpos(err.Col, "syntax error at "+describe(err.Text))
	}
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// describe names a token's text for an error message.
func describe(text string) string {
	if text == "" {
		return "end of input"
	}
	return strconv.Quote(text)
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var _ InputError = (*SyntaxError)(nil)

// DomainError is an error returned by a Context when an operation has no
// value representable by big.Float, such as 0/0 or a negative number raised
// to a fractional power.
type DomainError struct {
	// X is the out-of-domain operand.
	X *big.Float
	// Op is the operator that was applied.
	Op string
}

func (err *DomainError) Error() string {
	return err.X.String() + " outside domain of " + err.Op
}
