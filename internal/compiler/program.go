package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// CompileProgram compiles a program block that spells out its instructions.
//
//	program: corrupt: {
//		inputs: ["a"]
//		consts: {k: 2.0}
//		instructions: [{op: "tanh", args: ["c"], out: "b"}, {op: "exp", args: ["a"], out: "c"}]
//		outputs: ["b"]
//	}
//
// Args and outputs are variable names or numeric literals. The result is not
// checked against the single assignment rules; use Validate for that, so
// malformed programs can still be loaded and exercised.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Program{
		Name:         labelOf(v),
		Instructions: []ir.Instruction{},
	}

	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if !inputsVal.Exists() {
		return nil, &CompileError{Field: "inputs", Message: "inputs is required", Pos: v.Pos()}
	}
	names, err := parseStrings(inputsVal, "inputs")
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		p.Inputs = append(p.Inputs, ir.Var(name))
	}

	p.Consts, err = parseConsts(v)
	if err != nil {
		return nil, err
	}

	insVal := v.LookupPath(cue.ParsePath("instructions"))
	if insVal.Exists() {
		iter, err := insVal.List()
		if err != nil {
			return nil, formatCUEErrorField("instructions", err)
		}
		for i := 0; iter.Next(); i++ {
			ins, err := parseInstruction(iter.Value(), fmt.Sprintf("instructions[%d]", i))
			if err != nil {
				return nil, err
			}
			p.Instructions = append(p.Instructions, ins)
		}
	}

	outputsVal := v.LookupPath(cue.ParsePath("outputs"))
	if !outputsVal.Exists() {
		return nil, &CompileError{Field: "outputs", Message: "outputs is required", Pos: v.Pos()}
	}
	p.Outputs, err = parseRefs(outputsVal, "outputs")
	if err != nil {
		return nil, err
	}

	if exVal := v.LookupPath(cue.ParsePath("examples")); exVal.Exists() {
		iter, err := exVal.List()
		if err != nil {
			return nil, formatCUEErrorField("examples", err)
		}
		for i := 0; iter.Next(); i++ {
			x, err := iter.Value().Float64()
			if err != nil {
				return nil, formatCUEErrorField(fmt.Sprintf("examples[%d]", i), err)
			}
			p.Examples = append(p.Examples, x)
		}
	}

	return p, nil
}

// parseConsts reads the optional consts struct in declaration order.
func parseConsts(v cue.Value) ([]ir.Const, error) {
	constsVal := v.LookupPath(cue.ParsePath("consts"))
	if !constsVal.Exists() {
		return nil, nil
	}
	iter, err := constsVal.Fields()
	if err != nil {
		return nil, formatCUEErrorField("consts", err)
	}

	var consts []ir.Const
	for iter.Next() {
		value, err := iter.Value().Float64()
		if err != nil {
			return nil, formatCUEErrorField("consts."+iter.Label(), err)
		}
		consts = append(consts, ir.Const{Name: iter.Label(), Value: value})
	}
	return consts, nil
}

func parseInstruction(v cue.Value, field string) (ir.Instruction, error) {
	var ins ir.Instruction

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return ins, &CompileError{Field: field + ".op", Message: "op is required", Pos: v.Pos()}
	}
	op, err := opVal.String()
	if err != nil {
		return ins, formatCUEErrorField(field+".op", err)
	}
	ins.Op = ir.OpID(op)

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return ins, &CompileError{Field: field + ".args", Message: "args is required", Pos: v.Pos()}
	}
	ins.Inputs, err = parseRefs(argsVal, field+".args")
	if err != nil {
		return ins, err
	}

	outVal := v.LookupPath(cue.ParsePath("out"))
	if !outVal.Exists() {
		return ins, &CompileError{Field: field + ".out", Message: "out is required", Pos: v.Pos()}
	}
	out, err := outVal.String()
	if err != nil {
		return ins, formatCUEErrorField(field+".out", err)
	}
	ins.Output = ir.Var(out)

	return ins, nil
}

// parseRefs reads a list whose entries are variable names or numbers.
func parseRefs(v cue.Value, field string) ([]ir.Ref, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEErrorField(field, err)
	}

	refs := []ir.Ref{}
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		switch elem.Kind() {
		case cue.StringKind:
			name, _ := elem.String()
			refs = append(refs, ir.Var(name))
		case cue.IntKind, cue.FloatKind, cue.NumberKind:
			x, err := elem.Float64()
			if err != nil {
				return nil, formatCUEErrorField(fmt.Sprintf("%s[%d]", field, i), err)
			}
			refs = append(refs, ir.Lit(x))
		default:
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be a variable name or a number",
				Pos:     elem.Pos(),
			}
		}
	}
	return refs, nil
}

func parseStrings(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEErrorField(field, err)
	}

	var out []string
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEErrorField(fmt.Sprintf("%s[%d]", field, i), err)
		}
		out = append(out, s)
	}
	return out, nil
}
