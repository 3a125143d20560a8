package interpreter

import (
	"fmt"

	"github.com/singy15/trivial-lang/pkg/ast"
	"github.com/singy15/trivial-lang/pkg/runtime"
)

type specialForm func(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error)

// specialForms is consulted before ordinary application; its names can never
// be bound in a frame.
var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		ast.Progn: evaluateProgn,
		"fn":      evaluateFn,
		"if":      evaluateIf,
		"++":      evaluateIncrement,
		"--":      evaluateDecrement,
		"=":       evaluateAssign,
		"let":     evaluateLet,
		"for":     evaluateFor,
	}
}

// IsReserved reports whether name is a special form keyword.
func IsReserved(name string) bool {
	_, ok := specialForms[name]
	return ok
}

func evaluateProgn(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	release := env.Push()
	defer release()
	return i.evaluateSequence(form.Children[1:], env)
}

// (fn (p1 p2 ...) body)
func evaluateFn(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	if len(form.Children) != 3 {
		return nil, malformed("fn", "expected (fn (params...) body)")
	}
	list, ok := form.Children[1].(*ast.Branch)
	if !ok {
		return nil, malformed("fn", "parameter list must be a list")
	}
	params := make([]string, 0, len(list.Children))
	for _, child := range list.Children {
		name, err := bindingName("fn", child)
		if err != nil {
			return nil, err
		}
		params = append(params, name)
	}
	return &runtime.FunctionValue{Params: params, Body: form.Children[2]}, nil
}

// (if cond then [else])
func evaluateIf(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	n := len(form.Children)
	if n != 3 && n != 4 {
		return nil, malformed("if", "expected (if cond then [else])")
	}
	cond, err := i.evaluate(form.Children[1], env)
	if err != nil {
		return nil, err
	}
	if isTrue(cond) {
		return i.evaluateScoped(form.Children[2], env)
	}
	if n == 4 {
		return i.evaluateScoped(form.Children[3], env)
	}
	return runtime.Undefined, nil
}

func evaluateIncrement(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	return step(form, env, "++", addValues)
}

func evaluateDecrement(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	return step(form, env, "--", subtractValues)
}

// step redefines sym in the innermost frame, shadowing rather than mutating
// an outer binding.
func step(form *ast.Branch, env *runtime.Environment, op string, apply func(a, b runtime.Value) runtime.Value) (runtime.Value, error) {
	if len(form.Children) != 2 {
		return nil, malformed(op, fmt.Sprintf("expected (%s symbol)", op))
	}
	name, err := bindingName(op, form.Children[1])
	if err != nil {
		return nil, err
	}
	current, err := env.Get(name)
	if err != nil {
		return nil, err
	}
	env.Define(name, apply(current, runtime.NumberValue{Val: 1}))
	return runtime.Undefined, nil
}

// (= sym expr)
func evaluateAssign(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	if len(form.Children) != 3 {
		return nil, malformed("=", "expected (= symbol expr)")
	}
	name, err := bindingName("=", form.Children[1])
	if err != nil {
		return nil, err
	}
	val, err := i.evaluate(form.Children[2], env)
	if err != nil {
		return nil, err
	}
	if err := env.Assign(name, val); err != nil {
		return nil, err
	}
	return val, nil
}

// (let sym [expr])
func evaluateLet(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	n := len(form.Children)
	if n != 2 && n != 3 {
		return nil, malformed("let", "expected (let symbol [expr])")
	}
	name, err := bindingName("let", form.Children[1])
	if err != nil {
		return nil, err
	}
	var val runtime.Value = runtime.Undefined
	if n == 3 {
		val, err = i.evaluate(form.Children[2], env)
		if err != nil {
			return nil, err
		}
	}
	env.Define(name, val)
	return val, nil
}

// (for ((s1 i1 s2 i2 ...) cond step) body)
func evaluateFor(i *Interpreter, form *ast.Branch, env *runtime.Environment) (runtime.Value, error) {
	if len(form.Children) != 3 {
		return nil, malformed("for", "expected (for (bindings cond step) body)")
	}
	header, ok := form.Children[1].(*ast.Branch)
	if !ok || len(header.Children) != 3 {
		return nil, malformed("for", "header must be (bindings cond step)")
	}
	bindings, ok := header.Children[0].(*ast.Branch)
	if !ok {
		return nil, malformed("for", "bindings must be a list")
	}
	if len(bindings.Children)%2 != 0 {
		return nil, malformed("for", "bindings must be symbol/initializer pairs")
	}
	cond, stepExpr, body := header.Children[1], header.Children[2], form.Children[2]

	release := env.Push()
	defer release()

	for k := 0; k < len(bindings.Children); k += 2 {
		name, err := bindingName("for", bindings.Children[k])
		if err != nil {
			return nil, err
		}
		val, err := i.evaluate(bindings.Children[k+1], env)
		if err != nil {
			return nil, err
		}
		env.Define(name, val)
	}

	var result runtime.Value = runtime.Undefined
	for {
		c, err := i.evaluate(cond, env)
		if err != nil {
			return nil, err
		}
		if !isTrue(c) {
			break
		}
		result, err = i.evaluate(body, env)
		if err != nil {
			return nil, err
		}
		if _, err := i.evaluate(stepExpr, env); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// bindingName extracts a bindable symbol from node.
func bindingName(form string, node ast.Node) (string, error) {
	atom, ok := node.(*ast.Atom)
	if !ok || !atom.IsSymbol() {
		return "", malformed(form, "expected a symbol")
	}
	name := atom.Token.Text
	if IsReserved(name) {
		return "", &ReservedNameError{Name: name}
	}
	return name, nil
}
