package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/bitcalc"
)

const (
	historyFile = ".bitcalc_history"
	promptMain  = "bitcalc> "
	promptCont  = "     ... "
)

const replHelp = `Statements end with a semicolon. A statement may span several lines.
Commands:
  :vars    List variables and their values
  :tree    Toggle printing parse trees
  :reset   Forget all variables except those from --given
  :help    Show this message
  :quit    Exit the REPL`

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Repl reads programs line by line and prints their values. Variables persist
between lines. Ctrl+C cancels input and Ctrl+D exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			return a.repl(newSession(cmd.OutOrStdout(), s))
		},
	}
}

func (a *app) repl(sess *session) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var hist string
	if home, err := os.UserHomeDir(); err == nil {
		hist = filepath.Join(home, historyFile)
		if f, err := os.Open(hist); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if hist == "" {
			return
		}
		f, err := os.Create(hist)
		if err != nil {
			a.log.Warn("couldn't save history", zap.Error(err))
			return
		}
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}()

	fmt.Fprintln(sess.out, "bitcalc", version, "using the", sess.settings.backend.Name(), "backend. Type :help for help.")
	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(sess.out)
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(src)
		if sess.exec(src) {
			return nil
		}
	}
}

// readStatement reads lines until they form complete statements. It returns
// false at end of input.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src ends inside a comment or a statement. A
// statement is unfinished while the input left over after parsing has no
// semicolon.
func incomplete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	if bitcalc.EndsInComment(src) {
		return true
	}
	p, err := bitcalc.Parse(src)
	if err != nil {
		return false
	}
	return p.Err != nil && !strings.Contains(p.Rest, ";")
}

// session is the state of an interactive session.
type session struct {
	out      io.Writer
	settings *settings
	ctx      *bitcalc.Context
	trees    bool
}

func newSession(out io.Writer, s *settings) *session {
	return &session{out: out, settings: s, ctx: bitcalc.NewContext(s.ctx...)}
}

// exec runs one REPL entry, either a command or source text. It returns true
// if the session should end.
func (s *session) exec(src string) bool {
	switch cmd := strings.TrimSpace(src); {
	case strings.HasPrefix(cmd, ":"):
		return s.command(cmd)
	default:
		s.eval(src)
		return false
	}
}

func (s *session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, replHelp)
	case ":vars":
		names := s.ctx.Vars()
		if len(names) == 0 {
			fmt.Fprintln(s.out, "no variables")
		}
		b := s.ctx.Backend()
		for _, name := range names {
			label := name
			if label == "" {
				label = `""`
			}
			fmt.Fprintln(s.out, label, "=", b.Format(s.ctx.Lookup(name)))
		}
	case ":tree":
		s.trees = !s.trees
		if s.trees {
			fmt.Fprintln(s.out, "parse trees on")
		} else {
			fmt.Fprintln(s.out, "parse trees off")
		}
	case ":reset":
		s.ctx = bitcalc.NewContext(s.settings.ctx...)
		fmt.Fprintln(s.out, "variables reset")
	default:
		fmt.Fprintf(s.out, "unknown command %s, try :help\n", cmd)
	}
	return false
}

func (s *session) eval(src string) {
	p, err := bitcalc.Parse(src, s.settings.parse...)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	if s.trees {
		fmt.Fprintln(s.out, bitcalc.Render(p, bitcalc.ParseTree))
	}
	if r := s.ctx.Eval(p); len(r) != 0 {
		fmt.Fprintln(s.out, bitcalc.RenderResults(r))
	}
	if p.Err != nil {
		fmt.Fprintln(s.out, "error:", p.Err)
	}
}
