// Package arith implements a floating-point calculator for arithmetic
// expressions.
//
// Evaluation happens in three stages. Lex turns text into tokens, Parse turns
// tokens into an expression tree, and Expr.Eval reduces the tree to a float64.
// EvalString does all three at once. The first error at any stage ends the
// whole evaluation and is a *SyntaxError.
//
// Expressions use + - * / % and ^ with the usual precedence, ^ binding
// tightest and + - loosest, and parentheses for grouping. Every operator is
// left-associative, including ^, so "2^3^2" is 64. There is no unary minus:
// "-5" is an error, and "0-5" is the way to write it. Identifiers name
// constants, which are resolved while parsing; by default only pi and e exist.
//
// Division and remainder by zero give ±Inf or NaN as in IEEE 754. A Context
// evaluates the same trees with math/big to any precision instead, at which
// point such operations are errors.
package arith
