package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/singy15/trivial-lang/pkg/ast"
	"github.com/singy15/trivial-lang/pkg/interpreter"
	"github.com/singy15/trivial-lang/pkg/parser"
	"github.com/singy15/trivial-lang/pkg/runtime"
)

const (
	historyFile = ".trivial_history"
	promptMain  = "trivial> "
	promptCont  = "....... "
	banner      = "trivial repl. Type :quit to exit."
)

// lineReader is the part of *liner.State the session loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type replSession struct {
	interp *interpreter.Interpreter
	env    *runtime.Environment
	out    io.Writer
	errOut io.Writer
}

func newReplSession(out, errOut io.Writer, trace bool) *replSession {
	interp := interpreter.NewWithOptions(interpreter.Options{Stdout: out, Logger: newLogger(trace)})
	env := interp.NewEnvironment()
	// User definitions live above the builtin frame so they can shadow it.
	env.Push()
	return &replSession{interp: interp, env: env, out: out, errOut: errOut}
}

func runRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	trace := fs.Bool("trace", false, "log evaluation events to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}

	fmt.Fprintln(os.Stdout, banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	return newReplSession(os.Stdout, os.Stderr, *trace).loop(ln)
}

// loop reads and evaluates inputs until EOF or :quit. Evaluation errors are
// reported and the session continues with its environment intact.
func (s *replSession) loop(in lineReader) int {
	for {
		code, err := readBalanced(in, promptMain, promptCont)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return exitOK
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintf(s.errOut, "read error: %v\n", err)
			return exitFailure
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return exitOK
			default:
				fmt.Fprintln(s.out, "unknown command. Type :quit to exit.")
			}
			continue
		}

		in.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		v, err := s.interp.EvaluatePersistentSource(code, s.env)
		if err != nil {
			reportError(s.errOut, err)
			continue
		}
		if _, undefined := v.(runtime.UndefinedValue); !undefined {
			fmt.Fprintln(s.out, interpreter.FormatValue(v))
		}
	}
}

// readBalanced keeps prompting while the accumulated input has more open
// than close parens. Input that fails to tokenize is returned as is so the
// evaluator reports the error.
func readBalanced(in lineReader, prompt, cont string) (string, error) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := in.Prompt(p)
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if openParens(b.String()) <= 0 {
			return b.String(), nil
		}
	}
}

func openParens(src string) int {
	tokens, err := parser.Tokenize(src)
	if err != nil {
		return 0
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case ast.TokenOpenParen:
			depth++
		case ast.TokenCloseParen:
			depth--
		}
	}
	return depth
}
