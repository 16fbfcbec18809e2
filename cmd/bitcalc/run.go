package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/bitcalc"
)

func (a *app) evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [source...]",
		Short: "Evaluate programs and print each statement's value",
		Long: `Eval evaluates each program given with --in or as an argument, in that
order. With neither, it reads a program from stdin. Each program starts
with only the variables defined by --given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, bitcalc.Calculator)
		},
	}
	inputFlags(cmd.Flags())
	return cmd
}

func (a *app) treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [source...]",
		Short: "Print the parse tree of programs",
		Long: `Tree parses each program given with --in or as an argument, in that order,
and prints its syntax tree. With neither, it reads a program from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := bitcalc.ParseRenderMode(a.conf.GetString("format"))
			if err != nil || mode == bitcalc.Calculator {
				return errors.Errorf("unknown tree format %q", a.conf.GetString("format"))
			}
			return a.run(cmd, args, mode)
		},
	}
	inputFlags(cmd.Flags())
	cmd.Flags().String("format", "json", "Tree format, one of [json, yaml]")
	return cmd
}

func inputFlags(f *pflag.FlagSet) {
	f.StringArray("in", nil, "Input file, or - for stdin (any number of times)")
	f.Int("jobs", runtime.GOMAXPROCS(0), "Number of inputs to process concurrently")
}

// input is a named program source.
type input struct {
	name string
	read func() (string, error)
}

// inputs lists the programs to run: files from --in, then arguments, or
// stdin if there are neither. Stdin is read once however many times it is
// named.
func (a *app) inputs(cmd *cobra.Command, args []string) []input {
	stdin := sync.OnceValues(func() (string, error) {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), errors.Wrap(err, "reading stdin")
	})
	var ins []input
	for _, path := range a.conf.GetStringSlice("in") {
		ins = append(ins, fileInput(stdin, path))
	}
	for i, arg := range args {
		ins = append(ins, input{
			name: "argument " + strconv.Itoa(i+1),
			read: func() (string, error) { return arg, nil },
		})
	}
	if len(ins) == 0 {
		ins = append(ins, fileInput(stdin, "-"))
	}
	return ins
}

func fileInput(stdin func() (string, error), path string) input {
	if path == "-" {
		return input{name: "stdin", read: stdin}
	}
	return input{
		name: path,
		read: func() (string, error) {
			b, err := os.ReadFile(path)
			return string(b), errors.Wrapf(err, "reading %s", path)
		},
	}
}

// run renders every input concurrently and prints the outputs in input order.
// Outputs of inputs that succeeded are printed even if others failed.
func (a *app) run(cmd *cobra.Command, args []string, mode bitcalc.RenderMode) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	ins := a.inputs(cmd, args)
	outs := make([]string, len(ins))
	jobs := a.conf.GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, in := range ins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := a.render(in, mode, s)
			outs[i] = out
			return err
		})
	}
	err = g.Wait()
	w := cmd.OutOrStdout()
	for _, out := range outs {
		if out == "" {
			continue
		}
		fmt.Fprintln(w, out)
	}
	return err
}

func (a *app) render(in input, mode bitcalc.RenderMode, s *settings) (string, error) {
	start := time.Now()
	src, err := in.read()
	if err != nil {
		return "", err
	}
	p, err := bitcalc.Parse(src, s.parse...)
	if err != nil {
		return "", errors.Wrapf(err, "parsing %s", in.name)
	}
	if p.Err != nil {
		a.log.Warn("input not fully parsed",
			zap.String("input", in.name),
			zap.String("rest", p.Rest),
			zap.Error(p.Err),
		)
	}
	out := bitcalc.Render(p, mode, s.ctx...)
	a.log.Debug("rendered",
		zap.String("input", in.name),
		zap.Stringer("mode", mode),
		zap.String("backend", s.backend.Name()),
		zap.Int("statements", len(p.Exprs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
