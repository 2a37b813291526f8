// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/kiln/diagnostic"
	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib"
	"github.com/luthersystems/kiln/parser"
	"github.com/luthersystems/kiln/parser/lexer"
	"github.com/luthersystems/kiln/parser/rdparser"
	"github.com/luthersystems/kiln/parser/token"
)

// ErrorSymbol is bound to the most recent uncaught error.
const ErrorSymbol = "$error"

type config struct {
	stdin   io.ReadCloser
	stderr  io.Writer
	history string
	color   diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	c := &config{history: historyPath()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output of the REPL.
func WithStderr(stderr io.Writer) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the file used to persist input history.  An empty
// path disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithColor sets the color mode used when rendering errors.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl runs a repl in a new runtime with the host libraries loaded.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	configs := []lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithBatchMode(false),
	}
	if cfg.stderr != nil {
		configs = append(configs, lisp.WithStderr(cfg.stderr), lisp.WithStdout(cfg.stderr))
	}
	rt, err := lisp.NewRuntime(configs...)
	if err != nil {
		return fmt.Errorf("language initialization failure: %w", err)
	}
	if err := lisplib.LoadLibrary(rt); err != nil {
		return fmt.Errorf("library initialization failure: %w", err)
	}
	return RunRuntime(rt, prompt, opts...)
}

// RunRuntime runs a repl that evaluates expressions on the main thread of
// rt.  RunRuntime returns when its input is exhausted.
func RunRuntime(rt *lisp.Runtime, prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	out := cfg.stderr
	if out == nil {
		out = rt.Stderr
	}
	s := newSession(rt, prompt, out)
	s.renderer.Color = cfg.color

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            s.p.Prompt(),
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{reg: rt.Registry},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	s.p.Read = func() []*token.Token {
		rl.SetPrompt(s.p.Prompt())
		for {
			line, err := rl.ReadSlice()
			if err == readline.ErrInterrupt {
				continue
			}
			if err != nil {
				return []*token.Token{{Type: token.EOF}}
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			return s.tokens(line)
		}
	}
	s.run()
	return nil
}

// session holds the state of one repl: the interactive parser, the
// debugging level and the input lines read so far.
type session struct {
	rt       *lisp.Runtime
	p        *rdparser.Interactive
	out      io.Writer
	name     string
	level    int
	lines    map[string][]byte
	renderer *diagnostic.Renderer
}

func newSession(rt *lisp.Runtime, prompt string, out io.Writer) *session {
	s := &session{
		rt:    rt,
		p:     rdparser.NewInteractive(rt.Registry, nil),
		out:   out,
		name:  strings.TrimSuffix(strings.TrimSpace(prompt), ">"),
		lines: make(map[string][]byte),
	}
	s.renderer = &diagnostic.Renderer{SourceReader: s.source}
	s.setLevel(0)
	return s
}

// prompt returns the primary prompt for the current debugging level.
func (s *session) prompt() string {
	if s.level == 0 {
		return s.name + "> "
	}
	return fmt.Sprintf("%s %d> ", s.name, s.level)
}

func (s *session) setLevel(level int) {
	s.level = level
	prompt := s.prompt()
	s.p.SetPrompts(prompt, strings.Repeat(" ", len(prompt)))
}

// tokens lexes one line of input.  Each line is named so that errors can
// show the text they refer to.
func (s *session) tokens(line []byte) []*token.Token {
	name := fmt.Sprintf("stdin#%d", len(s.lines)+1)
	s.lines[name] = append([]byte(nil), line...)
	lex := lexer.New(token.NewScanner(name, bytes.NewReader(line)))
	var tokens []*token.Token
	for {
		tok := lex.ReadToken()
		if tok[0].Type == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok...)
		if tok[0].Type == token.ERROR {
			return tokens
		}
	}
}

func (s *session) source(name string) ([]byte, error) {
	if line, ok := s.lines[name]; ok {
		return line, nil
	}
	return os.ReadFile(name)
}

func (s *session) run() {
	for {
		expr, err := s.p.Parse()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.report(err, "")
			continue
		}
		s.eval(expr)
	}
}

// eval evaluates expr and prints its value.  An uncaught error is bound to
// $error and enters a new debugging level.  An abort leaves one level.
func (s *session) eval(expr lisp.Value) {
	v, err := s.rt.MainThread().Eval(expr, nil)
	switch err.(type) {
	case nil:
		if !lisp.IsVoid(v) {
			fmt.Fprintln(s.out, lisp.Repr(v))
		}
	case *lisp.AbortSignal:
		if s.level == 0 {
			fmt.Fprintln(s.out, "abort: not in a debugging level")
			return
		}
		s.setLevel(s.level - 1)
	default:
		if _, ok := err.(lisp.Condition); !ok {
			s.report(err, "")
			return
		}
		s.rt.Intern(ErrorSymbol).DefineVariable(err)
		s.report(err, "the error is bound to "+ErrorSymbol+"; (abort) leaves the debugging level")
		s.setLevel(s.level + 1)
	}
}

func (s *session) report(err error, note string) {
	diags := diagnostic.FromError(err)
	if note != "" {
		for i := range diags {
			diags[i].Notes = append(diags[i].Notes, note)
		}
	}
	_ = s.renderer.RenderAll(s.out, diags)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kiln_history")
}

// ensureHistoryFilePermissions creates the history file readable only by
// its owner, or restricts an existing one.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}
