package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes program errors.
type ErrorCode string

const (
	// ErrCodeUnregisteredOperation indicates an inversion needed an operation
	// with no registered inverse.
	ErrCodeUnregisteredOperation ErrorCode = "UNREGISTERED_OPERATION"

	// ErrCodeUnboundVariable indicates an instruction read a variable that was
	// never written. This is a malformed program, not a runtime condition.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeUntraceableControlFlow indicates the traced function did something
	// the tracer cannot record, such as branching on the traced value.
	ErrCodeUntraceableControlFlow ErrorCode = "UNTRACEABLE_CONTROL_FLOW"

	// ErrCodeNotInvertible indicates the program shape has no inversion rule
	// (more than one input or output, or an n-ary instruction).
	ErrCodeNotInvertible ErrorCode = "NOT_INVERTIBLE"

	// ErrCodeArityMismatch indicates the wrong number of values was supplied.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeUnknownOperation indicates an operation outside the closed set.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"
)

// Error is a structured program error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op identifies the operation involved, if any.
	Op OpID

	// Var identifies the variable involved, if any.
	Var string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Var != "":
		return fmt.Sprintf("%s: %s (op=%s, var=%s)", e.Code, e.Message, e.Op, e.Var)
	case e.Op != "":
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	case e.Var != "":
		return fmt.Sprintf("%s: %s (var=%s)", e.Code, e.Message, e.Var)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnregisteredOperationError creates an Error for a missing inverse.
func NewUnregisteredOperationError(op OpID) *Error {
	return &Error{
		Code:    ErrCodeUnregisteredOperation,
		Message: fmt.Sprintf("no inverse registered for %q", op),
		Op:      op,
	}
}

// NewUnboundVariableError creates an Error for a read of an unwritten variable.
// index is the position of the offending instruction.
func NewUnboundVariableError(name string, op OpID, index int) *Error {
	return &Error{
		Code:    ErrCodeUnboundVariable,
		Message: fmt.Sprintf("instruction %d reads %q before it is written", index, name),
		Op:      op,
		Var:     name,
		Details: map[string]string{"instruction": fmt.Sprintf("%d", index)},
	}
}

// NewUnboundOutputError creates an Error for a program output that no
// instruction writes.
func NewUnboundOutputError(name string) *Error {
	return &Error{
		Code:    ErrCodeUnboundVariable,
		Message: fmt.Sprintf("output %q is never written", name),
		Var:     name,
	}
}

// NewUntraceableError creates an Error for a tracing failure.
func NewUntraceableError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeUntraceableControlFlow,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotInvertibleError creates an Error for a program with no inversion rule.
func NewNotInvertibleError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeNotInvertible,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewArityMismatchError creates an Error for a wrong number of values.
func NewArityMismatchError(what string, got, want int) *Error {
	return &Error{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("%s: got %d value(s), want %d", what, got, want),
		Details: map[string]string{
			"got":  fmt.Sprintf("%d", got),
			"want": fmt.Sprintf("%d", want),
		},
	}
}

// NewUnknownOperationError creates an Error for an operation with no forward
// definition.
func NewUnknownOperationError(op OpID) *Error {
	return &Error{
		Code:    ErrCodeUnknownOperation,
		Message: fmt.Sprintf("unknown operation %q", op),
		Op:      op,
	}
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnregisteredOperation returns true if err is a missing-inverse error.
func IsUnregisteredOperation(err error) bool {
	return CodeOf(err) == ErrCodeUnregisteredOperation
}

// IsUnboundVariable returns true if err is an unbound-variable error.
func IsUnboundVariable(err error) bool {
	return CodeOf(err) == ErrCodeUnboundVariable
}

// IsUntraceable returns true if err is a tracing error.
func IsUntraceable(err error) bool {
	return CodeOf(err) == ErrCodeUntraceableControlFlow
}

// IsNotInvertible returns true if err rejects a program shape for inversion.
func IsNotInvertible(err error) bool {
	return CodeOf(err) == ErrCodeNotInvertible
}

// IsArityMismatch returns true if err reports a wrong number of values.
func IsArityMismatch(err error) bool {
	return CodeOf(err) == ErrCodeArityMismatch
}

// IsUnknownOperation returns true if err names an operation outside the set.
func IsUnknownOperation(err error) bool {
	return CodeOf(err) == ErrCodeUnknownOperation
}
