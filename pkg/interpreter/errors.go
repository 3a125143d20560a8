package interpreter

import (
	"fmt"

	"github.com/singy15/trivial-lang/pkg/runtime"
)

// NotImplementedError marks language features that parse but cannot be
// evaluated.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is not supported yet", e.Feature)
}

// MalformedFormError reports a reserved form with the wrong shape.
type MalformedFormError struct {
	Form   string
	Reason string
}

func (e *MalformedFormError) Error() string {
	return fmt.Sprintf("malformed %s: %s", e.Form, e.Reason)
}

// ReservedNameError is returned when code tries to bind a reserved form name.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("cannot bind reserved name %q", e.Name)
}

// NotCallableError is returned when the operator position of an application
// does not evaluate to a function.
type NotCallableError struct {
	Value runtime.Value
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("%s is not a function", FormatValue(e.Value))
}

// InternalError signals a node or token the evaluator has no rule for.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}

func malformed(form, reason string) error {
	return &MalformedFormError{Form: form, Reason: reason}
}
