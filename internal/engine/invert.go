package engine

import (
	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// Invert reconstructs the input of p that produces output y, using the
// inverses in reg (ops.Default when nil).
//
// p must have exactly one input and one output, and every instruction must
// apply a unary operation to a variable. Instructions whose output does not
// reach the program output are skipped. Domain errors from inverse functions
// are returned unchanged.
func Invert(p *ir.Program, reg *ops.Registry, y float64) (float64, error) {
	return invert(p, reg, y, nil)
}

func invert(p *ir.Program, reg *ops.Registry, y float64, quota *QuotaEnforcer) (float64, error) {
	if reg == nil {
		reg = ops.Default
	}
	if err := checkInvertible(p); err != nil {
		return 0, err
	}

	// Resolve every inverse up front so a missing one aborts before any
	// value is computed. Reverse order names the op the walk would hit first.
	inverses := make([]ops.UnaryFn, len(p.Instructions))
	for i := len(p.Instructions) - 1; i >= 0; i-- {
		fn, err := reg.Lookup(p.Instructions[i].Op)
		if err != nil {
			return 0, err
		}
		inverses[i] = fn
	}

	e := env{p.Outputs[0].Name: y}
	for i := len(p.Instructions) - 1; i >= 0; i-- {
		ins := p.Instructions[i]
		out, ok := e[ins.Output.Name]
		if !ok {
			continue
		}
		if quota != nil {
			if err := quota.Check(); err != nil {
				return 0, err
			}
		}

		x, err := inverses[i](out)
		if err != nil {
			return 0, err
		}
		e[ins.Inputs[0].Name] = x
	}

	x, ok := e[p.Inputs[0].Name]
	if !ok {
		return 0, ir.NewNotInvertibleError("output %s does not depend on input %s", p.Outputs[0], p.Inputs[0])
	}
	return x, nil
}

// checkInvertible rejects program shapes the backward walk cannot handle.
func checkInvertible(p *ir.Program) error {
	if !p.IsUnary() {
		return ir.NewNotInvertibleError(
			"program has %d input(s) and %d output(s); inversion needs exactly one of each",
			len(p.Inputs), len(p.Outputs))
	}
	if p.Outputs[0].Lit {
		return ir.NewNotInvertibleError("output is the literal %s", p.Outputs[0])
	}
	for i, ins := range p.Instructions {
		if len(ins.Inputs) != 1 {
			err := ir.NewNotInvertibleError("instruction %d (%s) has %d operands; only unary operations can be inverted",
				i, ins, len(ins.Inputs))
			err.Op = ins.Op
			return err
		}
		if ins.Inputs[0].Lit {
			err := ir.NewNotInvertibleError("instruction %d (%s) reads a literal", i, ins)
			err.Op = ins.Op
			return err
		}
	}
	return nil
}

// RoundTrip evaluates p at x and inverts the result, returning the
// reconstructed input.
func RoundTrip(p *ir.Program, reg *ops.Registry, x float64) (float64, error) {
	if err := checkInvertible(p); err != nil {
		return 0, err
	}
	ys, err := Evaluate(p, nil, x)
	if err != nil {
		return 0, err
	}
	return Invert(p, reg, ys[0])
}

// InverseProgram builds the explicit program computing the input of p from
// its output, using the elementary operation registered as each inverse.
// Inverses registered as opaque functions cannot be expressed and fail with
// UNREGISTERED_OPERATION. Range checks performed by standard inverse
// functions are not carried into the returned program.
func InverseProgram(p *ir.Program, reg *ops.Registry) (*ir.Program, error) {
	if reg == nil {
		reg = ops.Default
	}
	if err := checkInvertible(p); err != nil {
		return nil, err
	}

	live := map[string]bool{p.Outputs[0].Name: true}
	var instructions []ir.Instruction
	for i := len(p.Instructions) - 1; i >= 0; i-- {
		ins := p.Instructions[i]
		invOp, ok := reg.InverseOp(ins.Op)
		if !ok {
			return nil, ir.NewUnregisteredOperationError(ins.Op)
		}
		if !live[ins.Output.Name] {
			continue
		}
		live[ins.Inputs[0].Name] = true
		instructions = append(instructions, ir.Instruction{
			Op:     invOp,
			Inputs: []ir.Ref{ins.Output},
			Output: ins.Inputs[0],
		})
	}
	if !live[p.Inputs[0].Name] {
		return nil, ir.NewNotInvertibleError("output %s does not depend on input %s", p.Outputs[0], p.Inputs[0])
	}
	if instructions == nil {
		instructions = []ir.Instruction{}
	}

	inv := &ir.Program{
		Inputs:       []ir.Ref{p.Outputs[0]},
		Instructions: instructions,
		Outputs:      []ir.Ref{p.Inputs[0]},
	}
	if p.Name != "" {
		inv.Name = p.Name + "_inverse"
	}
	return inv, nil
}
