package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// InverseAlias declares that Op is inverted by the forward function of
// InverseOf.
//
//	inverse: square: "sqrt"
type InverseAlias struct {
	Op        ir.OpID `json:"op"`
	InverseOf ir.OpID `json:"inverse_of"`
}

// CompileInverse compiles one entry of the inverse block. The field label
// names the operation and the value names the operation inverting it.
func CompileInverse(v cue.Value) (InverseAlias, error) {
	if err := v.Err(); err != nil {
		return InverseAlias{}, formatCUEError(err)
	}

	op := labelOf(v)
	inv, err := v.String()
	if err != nil {
		return InverseAlias{}, &CompileError{
			Field:   "inverse." + op,
			Message: "inverse must name an operation",
			Pos:     v.Pos(),
		}
	}
	alias := InverseAlias{Op: ir.OpID(op), InverseOf: ir.OpID(inv)}

	if errs := validateInverse(alias); len(errs) > 0 {
		return InverseAlias{}, &CompileError{
			Field:   "inverse." + op,
			Message: errs[0].Message,
			Pos:     v.Pos(),
		}
	}
	return alias, nil
}

// ApplyInverses registers every alias in reg, in order.
func ApplyInverses(reg *ops.Registry, aliases []InverseAlias) error {
	for _, a := range aliases {
		if err := reg.Alias(a.Op, a.InverseOf); err != nil {
			return fmt.Errorf("apply inverse %s -> %s: %w", a.Op, a.InverseOf, err)
		}
	}
	return nil
}
