package interpreter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/singy15/trivial-lang/pkg/ast"
	"github.com/singy15/trivial-lang/pkg/parser"
	"github.com/singy15/trivial-lang/pkg/runtime"
)

// Options configures an Interpreter. The zero value writes to stdout, logs
// nothing and uses the default read caps.
type Options struct {
	Stdout io.Writer
	Logger *slog.Logger
	// TokenizerLimits and ParserLimits cap the two read loops independently.
	TokenizerLimits parser.Options
	ParserLimits    parser.Options
}

// Interpreter evaluates trees against an environment. It is not safe for
// concurrent use.
type Interpreter struct {
	stdout      io.Writer
	logger      *slog.Logger
	scanLimits  parser.Options
	parseLimits parser.Options
}

// New returns an interpreter writing to os.Stdout.
func New() *Interpreter {
	return NewWithOptions(Options{})
}

// NewWithOptions returns an interpreter configured by opts.
func NewWithOptions(opts Options) *Interpreter {
	interp := &Interpreter{
		stdout:      opts.Stdout,
		logger:      opts.Logger,
		scanLimits:  opts.TokenizerLimits,
		parseLimits: opts.ParserLimits,
	}
	if interp.stdout == nil {
		interp.stdout = os.Stdout
	}
	if interp.logger == nil {
		interp.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return interp
}

// NewEnvironment returns a fresh environment whose base frame holds the
// builtin library.
func (i *Interpreter) NewEnvironment() *runtime.Environment {
	env := runtime.NewEnvironment(i.builtinFrame())
	if i.logger.Enabled(context.Background(), slog.LevelDebug) {
		env.SetLogger(i.logger)
	}
	return env
}

// Run tokenizes, parses and evaluates source in a fresh environment, writing
// print output to os.Stdout.
func Run(source string) error {
	_, err := New().EvaluateSource(source, nil)
	return err
}

// Parse tokenizes and parses source with the interpreter's read caps,
// logging when either safety valve trips.
func (i *Interpreter) Parse(source string) (*ast.Branch, error) {
	scanner := parser.NewScanner(source, i.scanLimits)
	tokens, err := scanner.Scan()
	if err != nil {
		return nil, err
	}
	if scanner.Truncated() {
		i.logger.Warn("tokenizer read cap reached; input truncated", slog.Int("tokens", len(tokens)))
	}
	p := parser.NewParser(tokens, i.parseLimits)
	root := p.Parse()
	if p.Truncated() {
		i.logger.Warn("parser read cap reached; tokens dropped", slog.Int("tokens", len(tokens)))
	}
	i.logger.Debug("parsed source", slog.Int("tokens", len(tokens)), slog.Int("nodes", ast.Count(root)))
	return root, nil
}

// EvaluateSource parses source and evaluates it as one progn. A nil env gets a
// fresh environment.
func (i *Interpreter) EvaluateSource(source string, env *runtime.Environment) (runtime.Value, error) {
	root, err := i.Parse(source)
	if err != nil {
		return nil, err
	}
	return i.Evaluate(root, env)
}

// EvaluatePersistentSource evaluates each top-level expression of source
// directly in env's innermost frame, so definitions outlive the call.
func (i *Interpreter) EvaluatePersistentSource(source string, env *runtime.Environment) (runtime.Value, error) {
	root, err := i.Parse(source)
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = i.NewEnvironment()
	}
	return i.evaluateSequence(root.Children[1:], env)
}

// Evaluate walks node against env. A nil env gets a fresh environment.
func (i *Interpreter) Evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	if env == nil {
		env = i.NewEnvironment()
	}
	return i.evaluate(node, env)
}

func (i *Interpreter) evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.Branch:
		if n != nil {
			return i.evaluateBranch(n, env)
		}
	case *ast.Atom:
		if n != nil {
			return i.evaluateAtom(n, env)
		}
	}
	return nil, &InternalError{Message: fmt.Sprintf("unknown node type %T", node)}
}

func (i *Interpreter) evaluateAtom(atom *ast.Atom, env *runtime.Environment) (runtime.Value, error) {
	switch atom.Token.Kind {
	case ast.TokenSymbol:
		return env.Get(atom.Token.Text)
	case ast.TokenNumber:
		return runtime.NumberValue{Val: parseNumberLiteral(atom.Token.Text)}, nil
	case ast.TokenString:
		return runtime.StringValue{Val: atom.Token.Text}, nil
	case ast.TokenQuote:
		return nil, &NotImplementedError{Feature: "quote"}
	default:
		return nil, &InternalError{Message: fmt.Sprintf("unknown token kind %s", atom.Token.Kind)}
	}
}

func (i *Interpreter) evaluateBranch(branch *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	if len(branch.Children) == 0 {
		return nil, malformed("()", "empty form cannot be evaluated")
	}
	if head, ok := branch.Head(); ok {
		if form, reserved := specialForms[head.Token.Text]; reserved {
			return form(i, branch, env)
		}
	}

	values := make([]runtime.Value, 0, len(branch.Children))
	for _, child := range branch.Children {
		val, err := i.evaluate(child, env)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return i.CallFunction(values[0], env, values[1:])
}

// CallFunction applies a builtin or user function with the shared calling
// convention.
func (i *Interpreter) CallFunction(callee runtime.Value, env *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.NativeFunctionValue:
		i.logger.Debug("call builtin", slog.String("name", fn.Name), slog.Int("args", len(args)))
		return fn.Impl(env, args)
	case *runtime.FunctionValue:
		i.logger.Debug("call function", slog.Int("params", len(fn.Params)), slog.Int("args", len(args)))
		release := env.Push()
		defer release()
		for idx, name := range fn.Params {
			env.Define(name, arg(args, idx))
		}
		return i.evaluate(fn.Body, env)
	default:
		return nil, &NotCallableError{Value: callee}
	}
}

// evaluateSequence evaluates nodes in order in the current frame and returns
// the last value, or undefined for an empty sequence.
func (i *Interpreter) evaluateSequence(nodes []ast.Node, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.Undefined
	for _, node := range nodes {
		val, err := i.evaluate(node, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// evaluateScoped evaluates node inside a fresh frame.
func (i *Interpreter) evaluateScoped(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	release := env.Push()
	defer release()
	return i.evaluate(node, env)
}
