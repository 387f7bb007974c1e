package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("invert: %w", NewUnregisteredOperationError(OpTanh))

	assert.True(t, IsUnregisteredOperation(err))
	assert.False(t, IsUnboundVariable(err))
	assert.Equal(t, ErrCodeUnregisteredOperation, CodeOf(err))

	var e *Error
	if assert.True(t, errors.As(err, &e)) {
		assert.Equal(t, OpTanh, e.Op)
	}
}

func TestRuntimeError_Messages(t *testing.T) {
	assert.Equal(t,
		`UNREGISTERED_OPERATION: no inverse registered for "tanh" (op=tanh)`,
		NewUnregisteredOperationError(OpTanh).Error())
	assert.Equal(t,
		`UNBOUND_VARIABLE: instruction 0 reads "c" before it is written (op=tanh, var=c)`,
		NewUnboundVariableError("c", OpTanh, 0).Error())
	assert.Equal(t,
		"ARITY_MISMATCH: inputs: got 2 value(s), want 1",
		NewArityMismatchError("inputs", 2, 1).Error())
	assert.Equal(t,
		"NOT_INVERTIBLE: program has 2 inputs",
		NewNotInvertibleError("program has %d inputs", 2).Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.True(t, IsUntraceable(NewUntraceableError("branch on %s", "a")))
	assert.True(t, IsNotInvertible(NewNotInvertibleError("x")))
}

func TestUnknownOperationError_Message(t *testing.T) {
	err := NewUnknownOperationError("frobnicate")
	assert.True(t, IsUnknownOperation(err))
	assert.False(t, IsArityMismatch(err))
	assert.Equal(t, `UNKNOWN_OPERATION: unknown operation "frobnicate" (op=frobnicate)`, err.Error())
	assert.True(t, IsArityMismatch(NewArityMismatchError("inputs", 0, 1)))
}
