package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/singy15/trivial-lang/pkg/ast"
	"github.com/singy15/trivial-lang/pkg/driver"
	"github.com/singy15/trivial-lang/pkg/interpreter"
	"github.com/singy15/trivial-lang/pkg/parser"
)

const cliToolVersion = "trivial 0.1.0-dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return exitUsage
	}

	switch args[0] {
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return exitOK
	case "version", "--version", "-V":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return exitOK
	case "run":
		return runEntry(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "tokens":
		return runTokens(args[1:])
	case "ast":
		return runAST(args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "unknown flag %s\n", args[0])
			printUsage(os.Stderr)
			return exitUsage
		}
		return runEntry(args)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  trivial run [--max-reads N] [--trace] [file.tl | dir]")
	fmt.Fprintln(w, "  trivial run --git URL [--rev R | --tag T | --branch B] PATH")
	fmt.Fprintln(w, "  trivial repl [--trace]")
	fmt.Fprintln(w, "  trivial tokens [--max-reads N] FILE")
	fmt.Fprintln(w, "  trivial ast [--max-reads N] FILE")
	fmt.Fprintln(w, "  trivial version")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Without a file, run loads %s from the current directory.\n", driver.ManifestName)
}

func runEntry(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	maxReads := fs.Int("max-reads", 0, "cap tokenizer and parser reads (0 keeps the manifest or default cap)")
	trace := fs.Bool("trace", false, "log evaluation events to stderr")
	gitURL := fs.String("git", "", "read the script from this git repository")
	rev := fs.String("rev", "", "git revision to read")
	tag := fs.String("tag", "", "git tag to read")
	branch := fs.String("branch", "", "git branch to read")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *maxReads < 0 {
		fmt.Fprintf(os.Stderr, "--max-reads must not be negative (got %d)\n", *maxReads)
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(rest[1:], " "))
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var program *driver.Program
	var err error
	if *gitURL != "" {
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "trivial run --git requires the script path inside the repository")
			return exitUsage
		}
		program, err = driver.LoadGit(ctx, driver.GitSource{
			URL:    *gitURL,
			Rev:    *rev,
			Tag:    *tag,
			Branch: *branch,
			Path:   rest[0],
		})
	} else {
		if *rev != "" || *tag != "" || *branch != "" {
			fmt.Fprintln(os.Stderr, "--rev, --tag and --branch require --git")
			return exitUsage
		}
		target := ""
		if len(rest) == 1 {
			target = rest[0]
		}
		program, err = driver.Load(ctx, target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load program: %v\n", err)
		return exitFailure
	}

	logger := newLogger(*trace)
	logger.Debug("loaded program", slog.String("name", program.Name), slog.String("origin", program.Origin))
	limits := program.Limits.Override(driver.Limits{TokenizerReads: *maxReads, ParserReads: *maxReads})
	return executeProgram(program, limits, logger)
}

func executeProgram(program *driver.Program, limits driver.Limits, logger *slog.Logger) int {
	interp := interpreter.NewWithOptions(interpreter.Options{
		Stdout:          os.Stdout,
		Logger:          logger,
		TokenizerLimits: limits.Tokenizer(),
		ParserLimits:    limits.Parser(),
	})
	if _, err := interp.EvaluateSource(program.Source, nil); err != nil {
		reportError(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

func runTokens(args []string) int {
	program, opts, code := loadSingleFile("tokens", args)
	if program == nil {
		return code
	}
	scanner := parser.NewScanner(program.Source, opts)
	tokens, err := scanner.Scan()
	if err != nil {
		reportError(os.Stderr, err)
		return exitFailure
	}
	for _, tok := range tokens {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", tok.Kind, tok.Text)
	}
	if scanner.Truncated() {
		fmt.Fprintln(os.Stderr, "warning: tokenizer read cap reached; output truncated")
	}
	return exitOK
}

func runAST(args []string) int {
	program, opts, code := loadSingleFile("ast", args)
	if program == nil {
		return code
	}
	root, err := parser.ParseSource(program.Source, opts)
	if err != nil {
		reportError(os.Stderr, err)
		return exitFailure
	}
	fmt.Fprintln(os.Stdout, ast.Dump(root))
	return exitOK
}

func loadSingleFile(name string, args []string) (*driver.Program, parser.Options, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	maxReads := fs.Int("max-reads", 0, "cap tokenizer and parser reads")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, parser.Options{}, exitOK
		}
		return nil, parser.Options{}, exitUsage
	}
	if fs.NArg() != 1 || *maxReads < 0 {
		fmt.Fprintf(os.Stderr, "usage: trivial %s [--max-reads N] FILE\n", name)
		return nil, parser.Options{}, exitUsage
	}
	program, err := driver.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load program: %v\n", err)
		return nil, parser.Options{}, exitFailure
	}
	return program, parser.Options{MaxReads: *maxReads}, exitOK
}

func reportError(w io.Writer, err error) {
	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		fmt.Fprintf(w, "%s (%s)\n", syntaxErr.Error(), syntaxErr.Position())
		return
	}
	fmt.Fprintf(w, "runtime error: %v\n", err)
}

func newLogger(trace bool) *slog.Logger {
	if !trace {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
