package ops

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Registry maps operations to their inverse functions.
//
// Registration is expected to finish before evaluations start, but the
// registry is guarded so a late Register is safe, not undefined.
type Registry struct {
	mu       sync.RWMutex
	inverses map[ir.OpID]entry
}

// entry is a registered inverse. op is set when the inverse is the forward
// function of another elementary operation.
type entry struct {
	fn UnaryFn
	op ir.OpID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{inverses: make(map[ir.OpID]entry)}
}

// NewStandardRegistry returns a registry holding the analytic inverse of
// every unary operation.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	for op, inv := range standardInverses() {
		r.inverses[op] = entry{fn: inv, op: standardPairs[op]}
	}
	return r
}

// Register inserts or replaces the inverse of op. Last write wins.
// A nil inverse removes the entry.
func (r *Registry) Register(op ir.OpID, inverse UnaryFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inverse == nil {
		delete(r.inverses, op)
		return
	}
	r.inverses[op] = entry{fn: inverse}
}

// Alias registers the forward function of inverseOf as the inverse of op.
// Both operations must be unary.
func (r *Registry) Alias(op, inverseOf ir.OpID) error {
	if ir.Arity(op) != 1 {
		return fmt.Errorf("alias %s: operation must be a known unary operation", op)
	}
	def, err := Forward(inverseOf)
	if err != nil {
		return fmt.Errorf("alias %s: %w", op, err)
	}
	if def.Arity() != 1 {
		return fmt.Errorf("alias %s: inverse %s is not unary", op, inverseOf)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inverses[op] = entry{fn: def.Unary, op: inverseOf}
	return nil
}

// Lookup returns the inverse of op, or an UNREGISTERED_OPERATION error.
func (r *Registry) Lookup(op ir.OpID) (UnaryFn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.inverses[op]
	if !ok {
		return nil, ir.NewUnregisteredOperationError(op)
	}
	return e.fn, nil
}

// InverseOp returns the elementary operation registered as the inverse of
// op. It reports false when op is unregistered or its inverse is an opaque
// function.
func (r *Registry) InverseOp(op ir.OpID) (ir.OpID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.inverses[op]
	if !ok || e.op == "" {
		return "", false
	}
	return e.op, true
}

// Has reports whether op has a registered inverse.
func (r *Registry) Has(op ir.OpID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.inverses[op]
	return ok
}

// Ops returns the registered operations in sorted order.
func (r *Registry) Ops() []ir.OpID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ir.OpID, 0, len(r.inverses))
	for op := range r.inverses {
		out = append(out, op)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for op, e := range r.inverses {
		c.inverses[op] = e
	}
	return c
}

// Default is the process-wide registry.
var Default = NewStandardRegistry()

// Register registers an inverse in the Default registry.
func Register(op ir.OpID, inverse UnaryFn) {
	Default.Register(op, inverse)
}

// Lookup looks up an inverse in the Default registry.
func Lookup(op ir.OpID) (UnaryFn, error) {
	return Default.Lookup(op)
}

// standardPairs names the forward op used as each op's inverse.
var standardPairs = map[ir.OpID]ir.OpID{
	ir.OpExp:    ir.OpLog,
	ir.OpLog:    ir.OpExp,
	ir.OpTanh:   ir.OpAtanh,
	ir.OpAtanh:  ir.OpTanh,
	ir.OpSin:    ir.OpAsin,
	ir.OpAsin:   ir.OpSin,
	ir.OpCos:    ir.OpAcos,
	ir.OpAcos:   ir.OpCos,
	ir.OpSinh:   ir.OpAsinh,
	ir.OpAsinh:  ir.OpSinh,
	ir.OpSqrt:   ir.OpSquare,
	ir.OpSquare: ir.OpSqrt,
	ir.OpNeg:    ir.OpNeg,
	ir.OpRecip:  ir.OpRecip,
	ir.OpLog1p:  ir.OpExpm1,
	ir.OpExpm1:  ir.OpLog1p,
	ir.OpCbrt:   ir.OpCube,
	ir.OpCube:   ir.OpCbrt,
}

// StandardInverseOf returns the op whose forward function inverts op in the
// standard table.
func StandardInverseOf(op ir.OpID) (ir.OpID, bool) {
	inv, ok := standardPairs[op]
	return inv, ok
}

// rangeGuards reject values outside the range of the forward operation,
// where the inverse's own domain is wider than that range.
var rangeGuards = map[ir.OpID]struct {
	ok     func(y float64) bool
	reason string
}{
	ir.OpSqrt:  {func(y float64) bool { return y >= 0 }, "sqrt never produces a negative value"},
	ir.OpAsin:  {func(y float64) bool { return y >= -math.Pi/2 && y <= math.Pi/2 }, "value must be in [-pi/2, pi/2]"},
	ir.OpAcos:  {func(y float64) bool { return y >= 0 && y <= math.Pi }, "value must be in [0, pi]"},
	ir.OpAtanh: {func(y float64) bool { return !math.IsInf(y, 0) }, "atanh never produces an infinite value"},
}

func standardInverses() map[ir.OpID]UnaryFn {
	out := make(map[ir.OpID]UnaryFn, len(standardPairs))
	for op, invOp := range standardPairs {
		fn := forwardTable[invOp].Unary
		if g, ok := rangeGuards[op]; ok {
			out[op] = func(y float64) (float64, error) {
				if !g.ok(y) {
					return 0, domainError(op, "inverse undefined: "+g.reason, y)
				}
				return fn(y)
			}
			continue
		}
		out[op] = fn
	}
	return out
}
