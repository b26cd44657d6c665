package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zephyrtronium/arith"
	"github.com/zephyrtronium/arith/config"
	"github.com/zephyrtronium/arith/logs"
)

func main() {
	var (
		inname, verb, cfgname, lvl string
		nl, echo, journal          bool
		prec                       int
	)
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.IntVar(&prec, "p", 0, "precision of calculations in bits (0 for float64)")
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.StringVar(&cfgname, "config", "", "CUE config file with constants, precision, and format")
	flag.StringVar(&lvl, "log-level", "warn", "minimum log level: debug, info, warn, or error")
	flag.BoolVar(&journal, "journal", false, "also log to the systemd journal")
	flag.Parse()

	level := new(slog.LevelVar)
	if l, err := logs.ParseLevel(lvl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	} else {
		level.Set(l)
	}
	logger := logs.New(os.Stderr, logs.Options{Level: level, Journal: journal})

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	var opts []arith.ParseOption
	if cfgname != "" {
		cfg, err := config.Load(cfgname)
		if err != nil {
			logger.Error("load config", "path", cfgname, "error", err)
			os.Exit(1)
		}
		logger.Debug("loaded config", "path", cfgname, "constants", cfg.ConstNames())
		opts = append(opts, cfg.ParseOption())
		if cfg.Has("precision") && !explicit["p"] {
			prec = int(cfg.Precision)
		}
		if cfg.Has("format") && !explicit["fmt"] {
			verb = cfg.Format
		}
	}
	if prec < 0 {
		logger.Error("precision must not be negative", "p", prec)
		os.Exit(2)
	}

	srcs, err := inputs(inname, flag.Args(), nl)
	if err != nil {
		logger.Error("read input", "error", err)
		os.Exit(1)
	}

	r := runner{
		out:    bufio.NewWriter(os.Stdout),
		logger: logger,
		opts:   opts,
		verb:   verb + "\n",
		echo:   echo,
	}
	if prec > 0 {
		r.ctx = arith.NewContext(arith.Prec(uint(prec)))
	}
	failed := false
	for _, src := range srcs {
		if !r.run(src) {
			failed = true
		}
	}
	if err := r.out.Flush(); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

// runner evaluates expressions one at a time and prints their results.
type runner struct {
	out    *bufio.Writer
	logger *slog.Logger
	opts   []arith.ParseOption
	// ctx is non-nil when evaluating to a set precision.
	ctx  *arith.Context
	verb string
	echo bool
}

// run evaluates src and prints its result or error. It reports whether
// evaluation succeeded.
func (r *runner) run(src string) bool {
	a, err := arith.ParseString(src, r.opts...)
	if err != nil {
		return r.fail(src, err)
	}
	r.logger.Debug("parsed", "expr", src, "tree", a.String(), "consts", a.Consts())
	if r.echo {
		fmt.Fprintf(r.out, "%v : ", a)
	}
	if r.ctx != nil {
		v := r.ctx.Eval(a)
		if v == nil {
			return r.fail(src, r.ctx.Err())
		}
		fmt.Fprintf(r.out, r.verb, v)
		return true
	}
	v, err := a.Eval()
	if err != nil {
		return r.fail(src, err)
	}
	fmt.Fprintf(r.out, r.verb, v)
	return true
}

func (r *runner) fail(src string, err error) bool {
	attrs := []any{"expr", src, "error", err}
	if ie, ok := err.(arith.InputError); ok {
		attrs = append(attrs, "col", ie.Pos())
	}
	r.logger.Info("evaluation failed", attrs...)
	fmt.Fprintf(r.out, "error: %v\n", err)
	return false
}

// inputs collects the expression sources: the input file, then each
// argument. Stdin is read when there is no file and no arguments.
func inputs(inname string, args []string, nl bool) ([]string, error) {
	var srcs []string
	f, err := infile(inname, len(args) == 0)
	if err != nil {
		return nil, err
	}
	if f != nil {
		defer f.Close()
		if nl {
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				if line := sc.Text(); strings.TrimSpace(line) != "" {
					srcs = append(srcs, line)
				}
			}
			if err := sc.Err(); err != nil {
				return nil, err
			}
		} else {
			b, err := io.ReadAll(f)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, string(b))
		}
	}
	return append(srcs, args...), nil
}

func infile(inname string, std bool) (io.ReadCloser, error) {
	switch {
	case inname != "" && inname != "-":
		return os.Open(inname)
	case inname == "-", std:
		return io.NopCloser(os.Stdin), nil
	}
	return nil, nil
}
