package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Frame is one scope: symbol name to value.
type Frame map[string]Value

// UndefinedSymbolError is returned when no frame defines a symbol.
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("symbol %q is not defined", e.Name)
}

// Environment is a stack of frames. Lookup and assignment scan from the
// innermost frame outward; Define always targets the innermost frame.
type Environment struct {
	frames []Frame
	logger *slog.Logger
}

// NewEnvironment creates an environment whose only frame is base (an empty
// frame when base is nil).
func NewEnvironment(base Frame) *Environment {
	if base == nil {
		base = make(Frame)
	}
	return &Environment{frames: []Frame{base}}
}

// SetLogger enables debug logging of frame pushes and pops.
func (e *Environment) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// Depth returns the number of frames on the stack.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// Push adds an empty innermost frame. The returned release func restores the
// stack to its depth before the push; it is safe to call more than once.
func (e *Environment) Push() (release func()) {
	depth := len(e.frames)
	e.frames = append(e.frames, make(Frame))
	e.debug("push frame", depth+1)
	return func() {
		if len(e.frames) > depth {
			e.frames = e.frames[:depth]
			e.debug("pop frame", depth)
		}
	}
}

// Innermost returns the frame that Define writes to.
func (e *Environment) Innermost() Frame {
	return e.frames[len(e.frames)-1]
}

// Define inserts or overwrites a binding in the innermost frame.
func (e *Environment) Define(name string, value Value) {
	e.Innermost()[name] = value
}

// Assign updates an existing binding in the nearest frame that has it.
func (e *Environment) Assign(name string, value Value) error {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = value
			return nil
		}
	}
	return &UndefinedSymbolError{Name: name}
}

// Lookup finds a binding, searching outward through the stack.
func (e *Environment) Lookup(name string) (Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get is Lookup with an UndefinedSymbolError for missing names.
func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.Lookup(name); ok {
		return v, nil
	}
	return nil, &UndefinedSymbolError{Name: name}
}

// Keys returns the innermost frame's names in sorted order (useful for
// determinism in tests).
func (e *Environment) Keys() []string {
	frame := e.Innermost()
	keys := make([]string, 0, len(frame))
	for k := range frame {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the innermost frame.
func (e *Environment) Snapshot() map[string]Value {
	frame := e.Innermost()
	out := make(map[string]Value, len(frame))
	for k, v := range frame {
		out[k] = v
	}
	return out
}

func (e *Environment) debug(msg string, depth int) {
	if e.logger == nil {
		return
	}
	e.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, slog.Int("depth", depth))
}
