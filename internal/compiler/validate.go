package compiler

import (
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Program errors (E101-E109)
	ErrProgramNoInputs   = "E101" // at least one input required
	ErrProgramNoOutputs  = "E102" // at least one output required
	ErrUnknownOperation  = "E103" // op outside the closed set
	ErrArityMismatch     = "E104" // wrong operand count for op
	ErrDuplicateName     = "E105" // variable defined more than once
	ErrUseBeforeDef      = "E106" // variable read before it is written
	ErrUnboundOutput     = "E107" // output variable never written
	ErrInvalidAssignment = "E108" // literal or empty name as assignment target

	// Inverse errors (E110-E119)
	ErrInverseNotUnary      = "E110" // aliased op is not a known unary op
	ErrInverseUnknownTarget = "E111" // inverse names no unary op
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports Program and InverseAlias.
func Validate(v any) []ValidationError {
	switch val := v.(type) {
	case *ir.Program:
		return validateProgram(val)
	case ir.Program:
		return validateProgram(&val)
	case InverseAlias:
		return validateInverse(val)
	case *InverseAlias:
		return validateInverse(*val)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// validateProgram checks the single assignment rules of a program.
func validateProgram(p *ir.Program) []ValidationError {
	var errs []ValidationError

	// E101: at least one input
	if len(p.Inputs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "inputs",
			Message: "at least one input is required",
			Code:    ErrProgramNoInputs,
		})
	}

	defined := make(map[string]bool)
	define := func(field string, r ir.Ref) {
		switch {
		case r.Lit:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("literal %s cannot be assigned", r),
				Code:    ErrInvalidAssignment,
			})
		case r.Name == "":
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "variable name is empty",
				Code:    ErrInvalidAssignment,
			})
		case defined[r.Name]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("variable %q is assigned more than once", r.Name),
				Code:    ErrDuplicateName,
			})
		default:
			defined[r.Name] = true
		}
	}

	for i, in := range p.Inputs {
		define(fmt.Sprintf("inputs[%d]", i), in)
	}
	for i, c := range p.Consts {
		define(fmt.Sprintf("consts[%d]", i), ir.Var(c.Name))
	}

	for i, ins := range p.Instructions {
		field := fmt.Sprintf("instructions[%d]", i)

		// E103/E104: op and operand count
		if !ir.IsKnownOp(ins.Op) {
			errs = append(errs, ValidationError{
				Field:   field + ".op",
				Message: fmt.Sprintf("unknown operation %q", ins.Op),
				Code:    ErrUnknownOperation,
			})
		} else if want := ir.Arity(ins.Op); len(ins.Inputs) != want {
			errs = append(errs, ValidationError{
				Field:   field + ".args",
				Message: fmt.Sprintf("%s takes %d operand(s), got %d", ins.Op, want, len(ins.Inputs)),
				Code:    ErrArityMismatch,
			})
		}

		// E106: reads must follow writes
		for j, in := range ins.Inputs {
			if in.IsVar() && !defined[in.Name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.args[%d]", field, j),
					Message: fmt.Sprintf("variable %q is read before it is written", in.Name),
					Code:    ErrUseBeforeDef,
				})
			}
		}

		define(field+".out", ins.Output)
	}

	// E102/E107: outputs
	if len(p.Outputs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "outputs",
			Message: "at least one output is required",
			Code:    ErrProgramNoOutputs,
		})
	}
	for i, out := range p.Outputs {
		if out.IsVar() && !defined[out.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outputs[%d]", i),
				Message: fmt.Sprintf("variable %q is never written", out.Name),
				Code:    ErrUnboundOutput,
			})
		}
	}

	return errs
}

// validateInverse checks that both sides of an alias are unary operations.
func validateInverse(a InverseAlias) []ValidationError {
	var errs []ValidationError

	// E110: aliased op must be a known unary op
	if ir.Arity(a.Op) != 1 {
		errs = append(errs, ValidationError{
			Field:   "inverse." + string(a.Op),
			Message: fmt.Sprintf("%q is not a unary operation", a.Op),
			Code:    ErrInverseNotUnary,
		})
	}

	// E111: inverse must name a unary op
	if ir.Arity(a.InverseOf) != 1 {
		errs = append(errs, ValidationError{
			Field:   "inverse." + string(a.Op),
			Message: fmt.Sprintf("inverse %q is not a unary operation", a.InverseOf),
			Code:    ErrInverseUnknownTarget,
		})
	}

	return errs
}
