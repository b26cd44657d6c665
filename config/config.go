// Package config loads calculator settings and extra constants from CUE files.
package config

import (
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"

	"github.com/zephyrtronium/arith"
)

// Schema constrains every config file. Constant names must lex as single
// identifiers.
const Schema = `
constants?: close({[=~"^[A-Za-z]+$"]: number})
precision?: int & >=0
format?: string
`

// Config is the merged content of a set of config files.
type Config struct {
	// Constants are added to the default constant table.
	Constants map[string]float64
	// Precision is the number of bits for arbitrary-precision evaluation.
	// Zero means float64 evaluation.
	Precision uint
	// Format is the fmt verb used to print results.
	Format string

	// set records which top-level fields any file gave.
	set map[string]bool
}

// Has reports whether any loaded file set the named top-level field.
func (c Config) Has(field string) bool {
	return c.set[field]
}

// Load compiles each file in paths, checks it against Schema, and merges the
// results in order. Constants accumulate across files; for other fields, later
// files override earlier ones.
func Load(paths ...string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + Schema + "})")
	if err := schema.Err(); err != nil {
		return Config{}, errors.Wrap(err, "compile config schema")
	}

	cfg := Config{
		Constants: make(map[string]float64),
		set:       make(map[string]bool),
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		value := ctx.CompileBytes(content, cue.Filename(path))
		if err := value.Err(); err != nil {
			return Config{}, errors.Wrapf(err, "compile config %s", path)
		}
		value = schema.Unify(value)
		if err := value.Validate(cue.Concrete(true)); err != nil {
			return Config{}, errors.Wrapf(err, "validate config %s", path)
		}
		if err := cfg.merge(value); err != nil {
			return Config{}, errors.Wrapf(err, "decode config %s", path)
		}
	}
	return cfg, nil
}

func (c *Config) merge(value cue.Value) error {
	if v := value.LookupPath(cue.ParsePath("constants")); v.Exists() {
		var m map[string]float64
		if err := v.Decode(&m); err != nil {
			return err
		}
		for name, val := range m {
			if !arith.ValidConstName(name) {
				return errors.Errorf("invalid constant name %q", name)
			}
			c.Constants[name] = val
		}
		c.set["constants"] = true
	}
	if v := value.LookupPath(cue.ParsePath("precision")); v.Exists() {
		if err := v.Decode(&c.Precision); err != nil {
			return err
		}
		c.set["precision"] = true
	}
	if v := value.LookupPath(cue.ParsePath("format")); v.Exists() {
		if err := v.Decode(&c.Format); err != nil {
			return err
		}
		c.set["format"] = true
	}
	return nil
}

// ParseOption returns a parse option adding the configured constants. It is a
// preset, so it must come before any other parse options.
func (c Config) ParseOption() arith.ParseOption {
	if len(c.Constants) == 0 {
		return arith.ParsingPreset()
	}
	return arith.ParsingPreset(arith.ParseConsts(c.Constants))
}

// ConstNames returns the names of the configured constants, sorted.
func (c Config) ConstNames() []string {
	names := make([]string, 0, len(c.Constants))
	for k := range c.Constants {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
