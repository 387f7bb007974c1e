package testutil

import "github.com/gradient-ai/jax-gradient/internal/ir"

// ExpTanhProgram returns { lambda ; a. let b = tanh a; c = exp b in (c) }.
func ExpTanhProgram() *ir.Program {
	return &ir.Program{
		Name:   "exp_tanh",
		Inputs: []ir.Ref{ir.Var("a")},
		Instructions: []ir.Instruction{
			{Op: ir.OpTanh, Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Var("b")},
			{Op: ir.OpExp, Inputs: []ir.Ref{ir.Var("b")}, Output: ir.Var("c")},
		},
		Outputs:  []ir.Ref{ir.Var("c")},
		Examples: []float64{1},
	}
}

// ChainProgram returns the unary program applying ops in order to input a.
func ChainProgram(name string, ops ...ir.OpID) *ir.Program {
	p := &ir.Program{
		Name:         name,
		Inputs:       []ir.Ref{ir.Var("a")},
		Instructions: []ir.Instruction{},
		Examples:     []float64{1},
	}
	cur := ir.Var("a")
	for i, op := range ops {
		out := ir.Var(ir.VarName(i + 1))
		p.Instructions = append(p.Instructions, ir.Instruction{Op: op, Inputs: []ir.Ref{cur}, Output: out})
		cur = out
	}
	p.Outputs = []ir.Ref{cur}
	return p
}

// ScaledProgram returns { lambda k ; a. let b = mul a k; c = add b 0.5 in (c) }
// with constvar k defaulting to 2.
func ScaledProgram() *ir.Program {
	return &ir.Program{
		Name:   "scaled",
		Inputs: []ir.Ref{ir.Var("a")},
		Consts: []ir.Const{{Name: "k", Value: 2}},
		Instructions: []ir.Instruction{
			{Op: ir.OpMul, Inputs: []ir.Ref{ir.Var("a"), ir.Var("k")}, Output: ir.Var("b")},
			{Op: ir.OpAdd, Inputs: []ir.Ref{ir.Var("b"), ir.Lit(0.5)}, Output: ir.Var("c")},
		},
		Outputs: []ir.Ref{ir.Var("c")},
	}
}
