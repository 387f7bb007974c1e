package engine

import (
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// env is the binding environment of one evaluation.
type env map[string]float64

// resolve returns the value of ref. Literals resolve to themselves.
func (e env) resolve(ref ir.Ref) (float64, bool) {
	if ref.Lit {
		return ref.Value, true
	}
	v, ok := e[ref.Name]
	return v, ok
}

// Evaluate runs p forward on inputs and returns its outputs in order.
//
// consts overrides constvar defaults by name; nil keeps every default.
// Domain errors from forward functions are returned unchanged.
func Evaluate(p *ir.Program, consts ir.Bindings, inputs ...float64) ([]float64, error) {
	return evaluate(p, consts, inputs, nil)
}

// evaluate is Evaluate with an optional per-instruction step budget.
func evaluate(p *ir.Program, consts ir.Bindings, inputs []float64, quota *QuotaEnforcer) ([]float64, error) {
	if len(inputs) != len(p.Inputs) {
		return nil, ir.NewArityMismatchError("inputs", len(inputs), len(p.Inputs))
	}

	e, err := bindConsts(p, consts)
	if err != nil {
		return nil, err
	}
	for i, in := range p.Inputs {
		e[in.Name] = inputs[i]
	}

	for i, ins := range p.Instructions {
		if quota != nil {
			if err := quota.Check(); err != nil {
				return nil, err
			}
		}

		def, err := ops.Forward(ins.Op)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		args := make([]float64, len(ins.Inputs))
		for j, ref := range ins.Inputs {
			v, ok := e.resolve(ref)
			if !ok {
				return nil, ir.NewUnboundVariableError(ref.Name, ins.Op, i)
			}
			args[j] = v
		}

		out, err := def.Apply(args...)
		if err != nil {
			return nil, err
		}
		e[ins.Output.Name] = out
	}

	outputs := make([]float64, len(p.Outputs))
	for i, ref := range p.Outputs {
		v, ok := e.resolve(ref)
		if !ok {
			return nil, ir.NewUnboundOutputError(ref.Name)
		}
		outputs[i] = v
	}
	return outputs, nil
}

// bindConsts seeds an environment with constvar values, applying overrides.
// An override naming no constvar is an error.
func bindConsts(p *ir.Program, consts ir.Bindings) (env, error) {
	e := make(env, len(p.Inputs)+len(p.Consts)+len(p.Instructions))
	for _, c := range p.Consts {
		e[c.Name] = c.Value
	}
	for name, v := range consts {
		if _, ok := e[name]; !ok {
			return nil, &ir.Error{
				Code:    ir.ErrCodeUnboundVariable,
				Message: fmt.Sprintf("no constvar named %q", name),
				Var:     name,
			}
		}
		e[name] = v
	}
	return e, nil
}
