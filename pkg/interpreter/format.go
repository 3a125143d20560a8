package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/singy15/trivial-lang/pkg/runtime"
)

// FormatValue renders a value the way print writes it.
func FormatValue(v runtime.Value) string {
	switch val := v.(type) {
	case runtime.NumberValue:
		return formatNumber(val.Val)
	case runtime.StringValue:
		return val.Val
	case runtime.BoolValue:
		if val.Val {
			return "true"
		}
		return "false"
	case runtime.UndefinedValue, nil:
		return "undefined"
	case *runtime.NativeFunctionValue:
		return "[Function: " + val.Name + "]"
	case *runtime.FunctionValue:
		return "[Function: fn]"
	default:
		return "<" + v.Kind().String() + ">"
	}
}

// formatNumber prints the shortest round-tripping decimal, switching to
// exponent notation outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
