package arith

import (
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// globalconsts is the default constant table. It is never modified.
var globalconsts = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// bigconsts computes default constants to arbitrary precision. A constant that
// is not in bigconsts, or whose parsed value differs from the default, is
// evaluated from its float64 value instead.
var bigconsts = map[string]func(out *big.Float) *big.Float{
	"pi": bigfloat.Pi,
	"e": func(out *big.Float) *big.Float {
		var one big.Float
		one.SetPrec(out.Prec()).SetFloat64(1)
		return bigfloat.Exp(out, &one)
	},
}

// DefaultConsts returns a copy of the default constant table.
func DefaultConsts() map[string]float64 {
	m := make(map[string]float64, len(globalconsts))
	for k, v := range globalconsts {
		m[k] = v
	}
	return m
}

// ValidConstName reports whether name can be lexed as a single identifier and
// so can name a constant.
func ValidConstName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isLetter(r) {
			return false
		}
	}
	return true
}
