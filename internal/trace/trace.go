package trace

import (
	"fmt"

	"github.com/gomlx/exceptions"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Func is a traceable function of one value.
type Func func(b *Builder, x Value) Value

// FuncN is a traceable function of any number of values.
type FuncN func(b *Builder, xs []Value) []Value

// Trace records fn at the representative input example and returns the
// resulting single-input, single-output program.
func Trace(fn Func, example float64) (*ir.Program, error) {
	return TraceN(func(b *Builder, xs []Value) []Value {
		return []Value{fn(b, xs[0])}
	}, example)
}

// TraceN records fn with one placeholder per example.
func TraceN(fn FuncN, examples ...float64) (*ir.Program, error) {
	if len(examples) == 0 {
		return nil, ir.NewArityMismatchError("trace examples", 0, 1)
	}

	b := newBuilder()
	xs := make([]Value, len(examples))
	for i := range examples {
		xs[i] = b.input()
	}

	var outputs []Value
	err := exceptions.TryCatch[error](func() {
		outputs = fn(b, xs)
	})
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return b.program(outputs, examples)
}

// MustTrace is like Trace but panics on error.
func MustTrace(fn Func, example float64) *ir.Program {
	p, err := Trace(fn, example)
	if err != nil {
		panic(err)
	}
	return p
}

// Compose returns the unary function applying ops in order, first to last.
func Compose(ops ...ir.OpID) Func {
	return func(b *Builder, x Value) Value {
		for _, op := range ops {
			x = b.Apply(op, x)
		}
		return x
	}
}
