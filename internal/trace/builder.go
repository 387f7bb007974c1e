package trace

import (
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Value is a symbolic handle on a traced value: a placeholder input, a
// constvar, a literal, or the output of a recorded instruction.
type Value struct {
	b   *Builder
	ref ir.Ref
}

// Ref returns the program reference the value stands for.
func (v Value) Ref() ir.Ref {
	return v.ref
}

// IsLiteral reports whether v is a literal constant.
func (v Value) IsLiteral() bool {
	return v.ref.Lit
}

func (v Value) String() string {
	return v.ref.String()
}

// Builder records instructions for one trace. It is not safe for concurrent
// use and is only valid inside the function being traced.
type Builder struct {
	inputs       []ir.Ref
	consts       []ir.Const
	instructions []ir.Instruction
	taken        map[string]bool
	counter      int
}

func newBuilder() *Builder {
	return &Builder{taken: make(map[string]bool)}
}

// abort unwinds the traced function; Trace turns it back into an error.
func abort(format string, args ...any) {
	panic(ir.NewUntraceableError(format, args...))
}

// fresh returns the next unused generated variable name.
func (b *Builder) fresh() ir.Ref {
	for {
		name := ir.VarName(b.counter)
		b.counter++
		if !b.taken[name] {
			b.taken[name] = true
			return ir.Var(name)
		}
	}
}

func (b *Builder) input() Value {
	ref := b.fresh()
	b.inputs = append(b.inputs, ref)
	return Value{b: b, ref: ref}
}

func (b *Builder) check(v Value) ir.Ref {
	switch {
	case v.b == nil:
		abort("operand is a zero Value; values must come from the builder")
	case v.b != b:
		abort("operand %s belongs to a different trace", v.ref)
	}
	return v.ref
}

// Const returns a literal operand baked into the program.
func (b *Builder) Const(c float64) Value {
	return Value{b: b, ref: ir.Lit(c)}
}

// Constvar declares a named program constant with default value c. Callers of
// the evaluator may override it by name.
func (b *Builder) Constvar(name string, c float64) Value {
	if name == "" {
		abort("constvar name is empty")
	}
	if b.taken[name] {
		abort("constvar %q collides with an existing variable", name)
	}
	b.taken[name] = true
	b.consts = append(b.consts, ir.Const{Name: name, Value: c})
	return Value{b: b, ref: ir.Var(name)}
}

// Apply records op applied to operands and returns its output.
func (b *Builder) Apply(op ir.OpID, operands ...Value) Value {
	if !ir.IsKnownOp(op) {
		abort("unknown operation %q", op)
	}
	if want := ir.Arity(op); len(operands) != want {
		abort("%s takes %d operand(s), got %d", op, want, len(operands))
	}
	inputs := make([]ir.Ref, len(operands))
	for i, v := range operands {
		inputs[i] = b.check(v)
	}
	out := b.fresh()
	b.instructions = append(b.instructions, ir.Instruction{Op: op, Inputs: inputs, Output: out})
	return Value{b: b, ref: out}
}

// Concrete would return the value behind v. Tracing never has one, so this
// always aborts the trace.
func (b *Builder) Concrete(v Value) float64 {
	ref := b.check(v)
	if ref.Lit {
		return ref.Value
	}
	abort("concrete value of %s requested during tracing", ref)
	return 0
}

// If would choose a branch by the sign of cond. Branching on a traced value
// cannot be recorded in a straight-line program, so this aborts the trace
// unless cond is a literal.
func (b *Builder) If(cond Value, then, otherwise func() Value) Value {
	if b.Concrete(cond) != 0 {
		return then()
	}
	return otherwise()
}

func (b *Builder) Exp(x Value) Value    { return b.Apply(ir.OpExp, x) }
func (b *Builder) Log(x Value) Value    { return b.Apply(ir.OpLog, x) }
func (b *Builder) Tanh(x Value) Value   { return b.Apply(ir.OpTanh, x) }
func (b *Builder) Atanh(x Value) Value  { return b.Apply(ir.OpAtanh, x) }
func (b *Builder) Sin(x Value) Value    { return b.Apply(ir.OpSin, x) }
func (b *Builder) Asin(x Value) Value   { return b.Apply(ir.OpAsin, x) }
func (b *Builder) Cos(x Value) Value    { return b.Apply(ir.OpCos, x) }
func (b *Builder) Acos(x Value) Value   { return b.Apply(ir.OpAcos, x) }
func (b *Builder) Sinh(x Value) Value   { return b.Apply(ir.OpSinh, x) }
func (b *Builder) Asinh(x Value) Value  { return b.Apply(ir.OpAsinh, x) }
func (b *Builder) Sqrt(x Value) Value   { return b.Apply(ir.OpSqrt, x) }
func (b *Builder) Square(x Value) Value { return b.Apply(ir.OpSquare, x) }
func (b *Builder) Neg(x Value) Value    { return b.Apply(ir.OpNeg, x) }
func (b *Builder) Recip(x Value) Value  { return b.Apply(ir.OpRecip, x) }
func (b *Builder) Log1p(x Value) Value  { return b.Apply(ir.OpLog1p, x) }
func (b *Builder) Expm1(x Value) Value  { return b.Apply(ir.OpExpm1, x) }
func (b *Builder) Cbrt(x Value) Value   { return b.Apply(ir.OpCbrt, x) }
func (b *Builder) Cube(x Value) Value   { return b.Apply(ir.OpCube, x) }

func (b *Builder) Add(x, y Value) Value { return b.Apply(ir.OpAdd, x, y) }
func (b *Builder) Sub(x, y Value) Value { return b.Apply(ir.OpSub, x, y) }
func (b *Builder) Mul(x, y Value) Value { return b.Apply(ir.OpMul, x, y) }
func (b *Builder) Div(x, y Value) Value { return b.Apply(ir.OpDiv, x, y) }

func (b *Builder) program(outputs []Value, examples []float64) (*ir.Program, error) {
	if len(outputs) == 0 {
		return nil, ir.NewUntraceableError("traced function returned no values")
	}
	outs := make([]ir.Ref, len(outputs))
	for i, v := range outputs {
		switch {
		case v.b != b:
			return nil, ir.NewUntraceableError("output %d was not produced by this trace", i)
		case v.ref.Lit:
			return nil, ir.NewUntraceableError("output %d is the literal %s, not a traced value", i, v.ref)
		}
		outs[i] = v.ref
	}

	p := &ir.Program{
		Inputs:       b.inputs,
		Consts:       b.consts,
		Instructions: b.instructions,
		Outputs:      outs,
		Examples:     append([]float64(nil), examples...),
	}
	if errs := p.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("traced program is malformed: %w", errs[0])
	}
	return p, nil
}
