package arith

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Eval evaluates the expression with float64 arithmetic. Division and
// remainder by zero follow IEEE 754, giving ±Inf or NaN rather than an error,
// so the error is always nil for an expression returned by Parse.
func (e *Expr) Eval() (float64, error) {
	return e.n.eval()
}

func (n *node) eval() (float64, error) {
	switch n.kind {
	case nodeNum, nodeConst:
		return n.val, nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		l, err := n.left.eval()
		if err != nil {
			return 0, err
		}
		r, err := n.right.eval()
		if err != nil {
			return 0, err
		}
		switch n.kind {
		case nodeAdd:
			return l + r, nil
		case nodeSub:
			return l - r, nil
		case nodeMul:
			return l * r, nil
		case nodeDiv:
			return l / r, nil
		case nodeMod:
			return math.Mod(l, r), nil
		default:
			return math.Pow(l, r), nil
		}
	default:
		panic("arith: invalid AST node " + n.kind.String())
	}
}

// EvalString is a shortcut to lex, parse, and evaluate a string expression.
func EvalString(src string, opts ...ParseOption) (float64, error) {
	a, err := ParseString(src, opts...)
	if err != nil {
		return 0, err
	}
	return a.Eval()
}

// Context evaluates expressions with math/big at a fixed precision. Number
// literals are read again from their source text at that precision, so 0.1 is
// not first rounded to a float64. A Context must not be used concurrently.
type Context struct {
	// stack holds operands during evaluation. Slots are kept between
	// evaluations and overwritten in place.
	stack []*big.Float
	// nums caches literals by source text and default constants by "$name".
	nums map[string]*big.Float
	prec uint
	err  error
}

// ContextOption configures a Context.
type ContextOption interface {
	ctxOption()
}

type precopt uint

func (precopt) ctxOption() {}

// Prec sets the precision of calculations in bits.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// NewContext creates a context computing at 64 bits unless a Prec option
// says otherwise.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{nums: make(map[string]*big.Float), prec: 64}
	return ctx.Clone(opts...)
}

// Eval evaluates e and returns its value, which remains owned by ctx until the
// next evaluation. When some operation has no value, as with 0/0, Eval
// returns nil and Err reports a *DomainError or big.ErrNaN.
func (ctx *Context) Eval(e *Expr) *big.Float {
	if len(ctx.stack) > 1 {
		panic("arith: Eval during Eval")
	}
	if len(ctx.stack) == 1 {
		// The previous result may still be held by the caller.
		ctx.stack[0] = new(big.Float).SetPrec(ctx.prec)
	}
	ctx.stack = ctx.stack[:0]
	ctx.err = ctx.run(e.n)
	if ctx.err != nil {
		ctx.stack = ctx.stack[:0]
		return nil
	}
	return ctx.Result()
}

// run evaluates n. Package big panics with ErrNaN for Inf-Inf and 0*Inf;
// run returns that as the error instead.
func (ctx *Context) run(n *node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			nan, ok := r.(big.ErrNaN)
			if !ok {
				panic(r)
			}
			err = nan
		}
	}()
	return n.evalBig(ctx)
}

// Result returns the value of the last expression ctx evaluated, or nil if
// that evaluation failed. It panics if ctx has evaluated nothing.
func (ctx *Context) Result() *big.Float {
	if ctx.err != nil {
		return nil
	}
	if len(ctx.stack) != 1 {
		if len(ctx.stack) == 0 {
			panic("arith: Context.Result called before evaluating any expression")
		}
		panic("arith: " + strconv.Itoa(len(ctx.stack)) + " values left after evaluation")
	}
	return ctx.stack[0]
}

// Err returns the error from the last evaluation with ctx, if any.
func (ctx *Context) Err() error {
	return ctx.err
}

// Prec returns the precision of the context in bits.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Clone returns a fresh context with the same precision and cached values,
// modified by opts. Cached values carry over only when they are precise
// enough for the new context.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	prec := ctx.prec
	for _, opt := range opts {
		switch opt := opt.(type) {
		case precopt:
			prec = uint(opt)
		case nil:
		default:
			panic("arith: unknown option type")
		}
	}
	n := &Context{
		stack: make([]*big.Float, 0, cap(ctx.stack)),
		nums:  make(map[string]*big.Float, len(ctx.nums)),
		prec:  prec,
	}
	if prec <= ctx.prec {
		for k, v := range ctx.nums {
			n.nums[k] = new(big.Float).SetPrec(prec).Set(v)
		}
	}
	return n
}

// push grows the stack by one slot and returns it for writing.
func (ctx *Context) push() *big.Float {
	k := len(ctx.stack)
	if k == cap(ctx.stack) {
		ctx.stack = append(ctx.stack, nil)
	} else {
		ctx.stack = ctx.stack[:k+1]
	}
	if ctx.stack[k] == nil {
		ctx.stack[k] = new(big.Float).SetPrec(ctx.prec)
	}
	return ctx.stack[k]
}

// pop shrinks the stack by one slot. The returned value is reused by the next
// push.
func (ctx *Context) pop() *big.Float {
	r := ctx.top()
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top returns the topmost slot.
func (ctx *Context) top() *big.Float {
	return ctx.stack[len(ctx.stack)-1]
}

// num returns the value of a literal at the context's precision.
func (ctx *Context) num(s string) *big.Float {
	if r := ctx.nums[s]; r != nil {
		return r
	}
	// Literals are runs of digits and at most one point, which always parse.
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(s, 10)
	if err != nil {
		panic("arith: invalid number " + strconv.Quote(s) + ": " + err.Error())
	}
	ctx.nums[s] = r
	return r
}

// konst gets the value of a constant at the context's precision.
func (ctx *Context) konst(n *node) *big.Float {
	f := bigconsts[n.name]
	if f == nil || globalconsts[n.name] != n.val {
		return new(big.Float).SetPrec(ctx.prec).SetFloat64(n.val)
	}
	key := "$" + n.name
	if r := ctx.nums[key]; r != nil {
		return r
	}
	r := f(new(big.Float).SetPrec(ctx.prec))
	ctx.nums[key] = r
	return r
}

// evalBig pushes the node's value to the context's stack.
func (n *node) evalBig(ctx *Context) error {
	switch n.kind {
	case nodeNum:
		ctx.push().Set(ctx.num(n.name))
		return nil
	case nodeConst:
		ctx.push().Set(ctx.konst(n))
		return nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		// handled below
	default:
		panic("arith: invalid AST node " + n.kind.String())
	}
	if err := n.left.evalBig(ctx); err != nil {
		return err
	}
	if err := n.right.evalBig(ctx); err != nil {
		return err
	}
	r := ctx.pop()
	l := ctx.top()
	switch n.kind {
	case nodeAdd:
		l.Add(l, r)
	case nodeSub:
		l.Sub(l, r)
	case nodeMul:
		l.Mul(l, r)
	case nodeDiv:
		// Guard against invalid divisions, 0/0 or inf/inf.
		if l.Sign() == 0 && r.Sign() == 0 || l.IsInf() && r.IsInf() {
			return &DomainError{X: new(big.Float).Copy(r), Op: "/"}
		}
		l.Quo(l, r)
	case nodeMod:
		return bigmod(l, r)
	case nodePow:
		return bigpow(l, r)
	}
	return nil
}

// maxModBits is the most bits the integer part of a quotient may need for
// bigmod to compute a remainder.
const maxModBits = 1 << 16

// bigmod sets l to the remainder of l/r truncated toward zero, so that the
// result has the sign of l, like math.Mod.
func bigmod(l, r *big.Float) error {
	switch {
	case r.Sign() == 0:
		return &DomainError{X: new(big.Float).Copy(r), Op: "%"}
	case l.IsInf():
		return &DomainError{X: new(big.Float).Copy(l), Op: "%"}
	case r.IsInf(), l.Sign() == 0:
		return nil
	}
	// Enough precision to hold the integer part of the quotient exactly.
	prec := l.Prec()
	if e := l.MantExp(nil) - r.MantExp(nil); e > 0 {
		if e > maxModBits {
			return &DomainError{X: new(big.Float).Copy(l), Op: "%"}
		}
		prec += uint(e)
	}
	q := new(big.Float).SetPrec(prec).Quo(l, r)
	qi, _ := q.Int(nil)
	q.SetInt(qi)
	q.Mul(q, r)
	neg := l.Signbit()
	l.Sub(l, q)
	if l.Sign() == 0 && neg {
		l.Neg(l)
	}
	return nil
}

// bigpow sets l to l^r with the IEEE 754 special cases for zero and infinite
// operands. Otherwise, a negative base is allowed only with an integer
// exponent.
func bigpow(l, r *big.Float) error {
	switch {
	case r.Sign() == 0:
		l.SetInt64(1)
		return nil
	case l.Sign() == 0:
		neg := l.Signbit() && oddInt(r)
		if r.Signbit() {
			l.SetInf(neg)
			return nil
		}
		l.SetInt64(0)
		if neg {
			l.Neg(l)
		}
		return nil
	case l.IsInf():
		neg := l.Signbit() && oddInt(r)
		if r.Signbit() {
			l.SetInt64(0)
			if neg {
				l.Neg(l)
			}
			return nil
		}
		l.SetInf(neg)
		return nil
	case r.IsInf():
		// Only the magnitude of the base matters.
		c := new(big.Float).Abs(l).Cmp(big.NewFloat(1))
		switch {
		case c == 0:
			l.SetInt64(1)
		case (c > 0) != r.Signbit():
			l.SetInf(false)
		default:
			l.SetInt64(0)
		}
		return nil
	case l.Signbit() && !r.IsInt():
		return &DomainError{X: new(big.Float).Copy(l), Op: "^"}
	}
	neg := l.Signbit() && oddInt(r)
	x := new(big.Float).Abs(l)
	// Pow may return a value other than its first argument.
	l.Set(bigfloat.Pow(new(big.Float).SetPrec(l.Prec()), x, r))
	if neg {
		l.Neg(l)
	}
	return nil
}

// oddInt reports whether x is an odd integer.
func oddInt(x *big.Float) bool {
	if !x.IsInt() {
		return false
	}
	i, _ := x.Int(nil)
	return i.Bit(0) == 1
}

// EvalBig is a shortcut to lex, parse, and evaluate a string expression to
// prec bits.
func EvalBig(src string, prec uint, opts ...ParseOption) (*big.Float, error) {
	a, err := ParseString(src, opts...)
	if err != nil {
		return nil, err
	}
	ctx := NewContext(Prec(prec))
	if r := ctx.Eval(a); r != nil {
		return r, nil
	}
	return nil, ctx.Err()
}
