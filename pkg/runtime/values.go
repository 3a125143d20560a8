package runtime

import (
	"fmt"

	"github.com/singy15/trivial-lang/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindUndefined Kind = iota
	KindNumber
	KindString
	KindBool
	KindFunction
	KindNativeFunction
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// UndefinedValue is produced by forms that yield nothing.
type UndefinedValue struct{}

func (UndefinedValue) Kind() Kind { return KindUndefined }

// Undefined is the canonical absent value.
var Undefined Value = UndefinedValue{}

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// FunctionValue is a user function. It captures no scope: the body runs
// against whatever environment the caller passes in.
type FunctionValue struct {
	Params []string
	Body   ast.Node
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// NativeFunc is the calling convention shared with user functions: the active
// environment followed by positional arguments.
type NativeFunc func(env *Environment, args []Value) (Value, error)

type NativeFunctionValue struct {
	Name string
	Impl NativeFunc
}

func (v *NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// IsCallable reports whether v can be applied.
func IsCallable(v Value) bool {
	switch v.(type) {
	case *FunctionValue, *NativeFunctionValue:
		return true
	default:
		return false
	}
}
