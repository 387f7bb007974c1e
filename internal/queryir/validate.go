package queryir

import (
	"fmt"
	"slices"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Validate checks q and returns every problem found.
// Backends refuse queries that do not validate.
func Validate(q Query) []error {
	v := &validator{}
	if q.Limit < 0 {
		v.addError("limit must be non-negative, got %d", q.Limit)
	}
	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}
	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addError("nil predicate")
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Failed, *Failed:
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addError("unsupported predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	if !slices.Contains(Fields, eq.Field) {
		v.addError("unknown field %q", eq.Field)
		return
	}
	if eq.Field == FieldDirection {
		switch ir.Direction(eq.Value) {
		case ir.DirectionForward, ir.DirectionInverse:
		default:
			v.addError("direction must be %q or %q, got %q", ir.DirectionForward, ir.DirectionInverse, eq.Value)
		}
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
