package arith

import "strconv"

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type (
	constopt struct {
		name string
		val  float64
	}
	constsopt map[string]float64
	noconsts  struct{}
)

// parsectx holds general data for parsing. It is also a ParseOption.
type parsectx struct {
	// consts is the constant table that identifiers resolve against. nil
	// means the default table.
	consts map[string]float64
	// owned indicates that consts is a copy that options may modify.
	owned bool
}

// own makes p.consts safe to modify.
func (p *parsectx) own() {
	if p.owned {
		return
	}
	m := make(map[string]float64, len(globalconsts)+len(p.consts))
	if p.consts == nil {
		p.consts = globalconsts
	}
	for k, v := range p.consts {
		m[k] = v
	}
	p.consts = m
	p.owned = true
}

// ParseConst sets the value of a constant for parsing. The name must consist
// only of ASCII letters; otherwise ParseConst panics.
func ParseConst(name string, val float64) ParseOption {
	checkname(name)
	return &constopt{name, val}
}

func (o *constopt) parseOption(p parsectx) parsectx {
	p.own()
	p.consts[o.name] = o.val
	return p
}

// ParseConsts sets a group of constants for parsing. Each name must consist
// only of ASCII letters; otherwise ParseConsts panics.
func ParseConsts(consts map[string]float64) ParseOption {
	// Always make a copy.
	m := make(constsopt, len(consts))
	for k, v := range consts {
		checkname(k)
		m[k] = v
	}
	return m
}

func (o constsopt) parseOption(p parsectx) parsectx {
	p.own()
	for k, v := range o {
		p.consts[k] = v
	}
	return p
}

// DisableDefaultConsts removes the default constants, including pi, from the
// table. Options applied afterward may add constants back.
func DisableDefaultConsts() ParseOption {
	return noconsts{}
}

func (noconsts) parseOption(p parsectx) parsectx {
	p.consts = make(map[string]float64)
	p.owned = true
	return p
}

func checkname(name string) {
	if !ValidConstName(name) {
		panic("arith: invalid constant name " + strconv.Quote(name))
	}
}

// ParsingPreset creates a parsing preset that may be more efficient when using
// the same non-default parsing options for many calls to Parse. A preset
// panics when it would change any option from the default, but it is safe to
// apply other options after a preset.
func ParsingPreset(opts ...ParseOption) ParseOption {
	var p parsectx
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	return &p
}

func (o *parsectx) parseOption(p parsectx) parsectx {
	if p.consts != nil {
		panic("arith: preset applied to non-default parse config")
	}
	// The preset's table is shared between parses, so options applied after
	// it must copy before writing.
	p.consts = o.consts
	p.owned = false
	return p
}
