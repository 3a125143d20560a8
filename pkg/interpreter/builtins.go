package interpreter

import (
	"io"
	"strings"

	"github.com/singy15/trivial-lang/pkg/runtime"
)

// builtinFrame builds the base frame installed in every fresh environment.
func (i *Interpreter) builtinFrame() runtime.Frame {
	frame := runtime.Frame{}
	install := func(name string, impl runtime.NativeFunc) {
		frame[name] = &runtime.NativeFunctionValue{Name: name, Impl: impl}
	}

	install("print", func(_ *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, writeLine(i.stdout, args)
	})
	install("+", fold(addValues))
	install("-", fold(subtractValues))
	install("*", fold(multiplyValues))
	install("/", fold(divideValues))
	for _, op := range []string{">", ">=", "<", "<="} {
		op := op
		install(op, binary(func(a, b runtime.Value) bool { return compareValues(op, a, b) }))
	}
	install("===", binary(strictEquals))
	install("!==", binary(func(a, b runtime.Value) bool { return !strictEquals(a, b) }))
	install("==", binary(looseEquals))
	install("!=", binary(func(a, b runtime.Value) bool { return !looseEquals(a, b) }))
	install("!", func(_ *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: !truthy(arg(args, 0))}, nil
	})
	return frame
}

// BuiltinNames lists the names installed in the base frame.
func BuiltinNames() []string {
	return []string{"print", "+", "-", "*", "/", ">", ">=", "<", "<=", "===", "!==", "==", "!=", "!"}
}

func writeLine(w io.Writer, args []runtime.Value) error {
	parts := make([]string, len(args))
	for idx, v := range args {
		parts[idx] = FormatValue(v)
	}
	_, err := io.WriteString(w, strings.Join(parts, " ")+"\n")
	return err
}

// fold reduces the arguments left to right starting from the first one.
// A single argument is returned unchanged; no arguments yield undefined.
func fold(op func(a, b runtime.Value) runtime.Value) runtime.NativeFunc {
	return func(_ *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.Undefined, nil
		}
		acc := args[0]
		for _, v := range args[1:] {
			acc = op(acc, v)
		}
		return acc, nil
	}
}

func binary(pred func(a, b runtime.Value) bool) runtime.NativeFunc {
	return func(_ *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: pred(arg(args, 0), arg(args, 1))}, nil
	}
}

// arg returns the n-th argument or undefined when it was not supplied.
func arg(args []runtime.Value, n int) runtime.Value {
	if n < len(args) && args[n] != nil {
		return args[n]
	}
	return runtime.Undefined
}
