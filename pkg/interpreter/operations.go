package interpreter

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/singy15/trivial-lang/pkg/runtime"
)

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseNumberLiteral converts a number token. Text that is not a valid
// decimal (such as 1.2.3) becomes NaN.
func parseNumberLiteral(text string) float64 {
	f, err := strconv.ParseFloat(text, 64)
	if err == nil {
		return f
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return f
	}
	return math.NaN()
}

// toNumber applies the host's numeric coercion.
func toNumber(v runtime.Value) float64 {
	switch val := v.(type) {
	case runtime.NumberValue:
		return val.Val
	case runtime.BoolValue:
		if val.Val {
			return 1
		}
		return 0
	case runtime.StringValue:
		return stringToNumber(val.Val)
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	return parseNumberLiteral(s)
}

// truthy treats false, 0, NaN, "" and undefined as false.
func truthy(v runtime.Value) bool {
	switch val := v.(type) {
	case runtime.BoolValue:
		return val.Val
	case runtime.NumberValue:
		return val.Val != 0 && !math.IsNaN(val.Val)
	case runtime.StringValue:
		return val.Val != ""
	case runtime.UndefinedValue, nil:
		return false
	default:
		return true
	}
}

// isTrue is the condition test used by if and for: only boolean true passes.
func isTrue(v runtime.Value) bool {
	b, ok := v.(runtime.BoolValue)
	return ok && b.Val
}

// addValues adds two numbers and concatenates anything else.
func addValues(a, b runtime.Value) runtime.Value {
	an, aok := a.(runtime.NumberValue)
	bn, bok := b.(runtime.NumberValue)
	if aok && bok {
		return runtime.NumberValue{Val: an.Val + bn.Val}
	}
	return runtime.StringValue{Val: FormatValue(a) + FormatValue(b)}
}

func subtractValues(a, b runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: toNumber(a) - toNumber(b)}
}

func multiplyValues(a, b runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: toNumber(a) * toNumber(b)}
}

func divideValues(a, b runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: toNumber(a) / toNumber(b)}
}

// compareValues orders two strings lexicographically and anything else
// numerically. Comparisons involving NaN are false.
func compareValues(op string, a, b runtime.Value) bool {
	as, aok := a.(runtime.StringValue)
	bs, bok := b.(runtime.StringValue)
	if aok && bok {
		switch op {
		case ">":
			return as.Val > bs.Val
		case ">=":
			return as.Val >= bs.Val
		case "<":
			return as.Val < bs.Val
		case "<=":
			return as.Val <= bs.Val
		}
		return false
	}
	x, y := toNumber(a), toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch op {
	case ">":
		return x > y
	case ">=":
		return x >= y
	case "<":
		return x < y
	case "<=":
		return x <= y
	}
	return false
}

// strictEquals requires the same kind and value. Callables compare by
// identity.
func strictEquals(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.NumberValue:
		bv, ok := b.(runtime.NumberValue)
		return ok && av.Val == bv.Val
	case runtime.StringValue:
		bv, ok := b.(runtime.StringValue)
		return ok && av.Val == bv.Val
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	case runtime.UndefinedValue:
		_, ok := b.(runtime.UndefinedValue)
		return ok
	case *runtime.FunctionValue:
		bv, ok := b.(*runtime.FunctionValue)
		return ok && av == bv
	case *runtime.NativeFunctionValue:
		bv, ok := b.(*runtime.NativeFunctionValue)
		return ok && av == bv
	default:
		return false
	}
}

// looseEquals coerces operands of different kinds before comparing.
func looseEquals(a, b runtime.Value) bool {
	if a.Kind() == b.Kind() {
		return strictEquals(a, b)
	}
	_, aUndef := a.(runtime.UndefinedValue)
	_, bUndef := b.(runtime.UndefinedValue)
	if aUndef || bUndef {
		return false
	}
	if _, ok := a.(runtime.BoolValue); ok {
		return looseEquals(runtime.NumberValue{Val: toNumber(a)}, b)
	}
	if _, ok := b.(runtime.BoolValue); ok {
		return looseEquals(a, runtime.NumberValue{Val: toNumber(b)})
	}
	aCall, bCall := runtime.IsCallable(a), runtime.IsCallable(b)
	switch {
	case aCall && bCall:
		return false
	case aCall:
		return looseEquals(runtime.StringValue{Val: FormatValue(a)}, b)
	case bCall:
		return looseEquals(a, runtime.StringValue{Val: FormatValue(b)})
	}
	return toNumber(a) == toNumber(b)
}
