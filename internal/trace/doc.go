// Package trace records a Go function over symbolic values into an ir.Program.
//
// The traced function receives an explicit *Builder and placeholder Values for
// its inputs. Every elementary method on the Builder appends one instruction
// with a fresh output variable and returns a Value naming it:
//
//	p, err := trace.Trace(func(b *trace.Builder, x trace.Value) trace.Value {
//		return b.Exp(b.Tanh(x))
//	}, 1.0)
//
// Tracing is straight-line only. Asking for the concrete value behind a
// placeholder (Concrete, If) aborts the trace with UNTRACEABLE_CONTROL_FLOW,
// as do values from another Builder and malformed operations. Aborts unwind
// the traced function with a panic that Trace recovers and returns as an
// error.
package trace
