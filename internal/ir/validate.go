package ir

import "fmt"

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the program against the single static assignment rules.
// Returns all errors (not fail-fast) for better developer experience.
func (p *Program) Validate() []ValidationError {
	var errs []ValidationError

	if len(p.Inputs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "inputs",
			Message: "at least one input is required",
		})
	}

	defined := make(map[string]bool)
	define := func(field string, r Ref) {
		if r.Lit {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("literal %s cannot be assigned", r),
			})
			return
		}
		if r.Name == "" {
			errs = append(errs, ValidationError{Field: field, Message: "variable name is empty"})
			return
		}
		if defined[r.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("variable %q is assigned more than once", r.Name),
			})
		}
		defined[r.Name] = true
	}

	for i, in := range p.Inputs {
		define(fmt.Sprintf("inputs[%d]", i), in)
	}
	for i, c := range p.Consts {
		define(fmt.Sprintf("consts[%d]", i), Var(c.Name))
	}

	for i, ins := range p.Instructions {
		field := fmt.Sprintf("instructions[%d]", i)
		if !IsKnownOp(ins.Op) {
			errs = append(errs, ValidationError{
				Field:   field + ".op",
				Message: fmt.Sprintf("unknown operation %q", ins.Op),
			})
		} else if want := Arity(ins.Op); len(ins.Inputs) != want {
			errs = append(errs, ValidationError{
				Field:   field + ".inputs",
				Message: fmt.Sprintf("%s takes %d operand(s), got %d", ins.Op, want, len(ins.Inputs)),
			})
		}
		for j, in := range ins.Inputs {
			if in.IsVar() && !defined[in.Name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.inputs[%d]", field, j),
					Message: fmt.Sprintf("variable %q is read before it is written", in.Name),
				})
			}
		}
		define(field+".output", ins.Output)
	}

	if len(p.Outputs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "outputs",
			Message: "at least one output is required",
		})
	}
	for i, out := range p.Outputs {
		if out.IsVar() && !defined[out.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outputs[%d]", i),
				Message: fmt.Sprintf("variable %q is never written", out.Name),
			})
		}
	}

	return errs
}
