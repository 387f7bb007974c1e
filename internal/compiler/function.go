package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/trace"
)

// DefaultExample is the trace input used when a function gives none.
const DefaultExample = 1.0

// step is one entry of a function's ops pipeline.
type step struct {
	op       ir.OpID
	value    float64
	hasConst bool
	constvar string
}

// apply records the step on b. constvars holds the handles of the
// function's constvars, declared before any step runs.
func (s step) apply(b *trace.Builder, x trace.Value, constvars map[string]trace.Value) trace.Value {
	switch {
	case s.constvar != "":
		return b.Apply(s.op, x, constvars[s.constvar])
	case s.hasConst:
		return b.Apply(s.op, x, b.Const(s.value))
	}
	return b.Apply(s.op, x)
}

// CompileFunction compiles a function block by tracing its ops pipeline
// through a trace.Builder. Each entry is applied to the running value, in
// order. Binary operations take the running value as their left operand.
//
//	function: scaled: {
//		ops: ["tanh", {op: "mul", const: 2.0}, {op: "add", constvar: "k", value: 0.5}]
//		example: 1.0
//	}
func CompileFunction(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   "ops",
			Message: "ops is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := opsVal.List()
	if err != nil {
		return nil, formatCUEErrorField("ops", err)
	}

	var steps []step
	constvars := make(map[string]bool)
	for i := 0; iter.Next(); i++ {
		s, err := parseStep(iter.Value(), fmt.Sprintf("ops[%d]", i))
		if err != nil {
			return nil, err
		}
		if s.constvar != "" {
			if constvars[s.constvar] {
				return nil, &CompileError{
					Field:   fmt.Sprintf("ops[%d].constvar", i),
					Message: fmt.Sprintf("constvar %q is declared more than once", s.constvar),
					Pos:     iter.Value().Pos(),
				}
			}
			constvars[s.constvar] = true
		}
		steps = append(steps, s)
	}

	example := DefaultExample
	if exVal := v.LookupPath(cue.ParsePath("example")); exVal.Exists() {
		example, err = exVal.Float64()
		if err != nil {
			return nil, formatCUEErrorField("example", err)
		}
	}

	p, err := trace.Trace(func(b *trace.Builder, x trace.Value) trace.Value {
		// Constvar names are claimed up front so generated instruction
		// outputs never take them.
		handles := make(map[string]trace.Value, len(constvars))
		for _, s := range steps {
			if s.constvar != "" {
				handles[s.constvar] = b.Constvar(s.constvar, s.value)
			}
		}
		for _, s := range steps {
			x = s.apply(b, x, handles)
		}
		return x
	}, example)
	if err != nil {
		return nil, &CompileError{Field: "ops", Message: err.Error(), Pos: opsVal.Pos(), Err: err}
	}
	p.Name = labelOf(v)
	return p, nil
}

// parseStep parses an ops entry: an operation name or {op, const|constvar}.
func parseStep(v cue.Value, field string) (step, error) {
	if name, err := v.String(); err == nil {
		op := ir.OpID(name)
		if err := checkStepArity(op, false, field, v); err != nil {
			return step{}, err
		}
		return step{op: op}, nil
	}

	if v.IncompleteKind() != cue.StructKind {
		return step{}, &CompileError{
			Field:   field,
			Message: "must be an operation name or a struct with an op field",
			Pos:     v.Pos(),
		}
	}

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return step{}, &CompileError{Field: field + ".op", Message: "op is required", Pos: v.Pos()}
	}
	name, err := opVal.String()
	if err != nil {
		return step{}, formatCUEErrorField(field+".op", err)
	}
	s := step{op: ir.OpID(name)}

	constVal := v.LookupPath(cue.ParsePath("const"))
	cvVal := v.LookupPath(cue.ParsePath("constvar"))
	switch {
	case constVal.Exists() && cvVal.Exists():
		return step{}, &CompileError{
			Field:   field,
			Message: "const and constvar are mutually exclusive",
			Pos:     v.Pos(),
		}
	case constVal.Exists():
		if s.value, err = constVal.Float64(); err != nil {
			return step{}, formatCUEErrorField(field+".const", err)
		}
		s.hasConst = true
	case cvVal.Exists():
		if s.constvar, err = cvVal.String(); err != nil {
			return step{}, formatCUEErrorField(field+".constvar", err)
		}
		if strings.TrimSpace(s.constvar) == "" {
			return step{}, &CompileError{Field: field + ".constvar", Message: "constvar name is empty", Pos: cvVal.Pos()}
		}
		valueVal := v.LookupPath(cue.ParsePath("value"))
		if !valueVal.Exists() {
			return step{}, &CompileError{
				Field:   field + ".value",
				Message: fmt.Sprintf("constvar %q needs a default value", s.constvar),
				Pos:     v.Pos(),
			}
		}
		if s.value, err = valueVal.Float64(); err != nil {
			return step{}, formatCUEErrorField(field+".value", err)
		}
	}

	if err := checkStepArity(s.op, s.hasConst || s.constvar != "", field, opVal); err != nil {
		return step{}, err
	}
	return s, nil
}

func checkStepArity(op ir.OpID, hasOperand bool, field string, v cue.Value) error {
	switch ir.Arity(op) {
	case 0:
		return &CompileError{
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown operation %q", op),
			Pos:     v.Pos(),
		}
	case 1:
		if hasOperand {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unary operation %s takes no const or constvar", op),
				Pos:     v.Pos(),
			}
		}
	default:
		if !hasOperand {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("binary operation %s needs a const or constvar operand", op),
				Pos:     v.Pos(),
			}
		}
	}
	return nil
}

// labelOf returns the last path selector of v, unquoted.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return strings.Trim(labels[len(labels)-1].String(), `"`)
}
