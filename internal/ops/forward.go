package ops

import (
	"math"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// UnaryFn is a scalar function of one argument. Domain failures are returned
// as *DomainError.
type UnaryFn func(x float64) (float64, error)

// BinaryFn is a scalar function of two arguments.
type BinaryFn func(x, y float64) (float64, error)

// Def is the forward definition of an elementary operation. Exactly one of
// Unary and Binary is set.
type Def struct {
	Op     ir.OpID
	Unary  UnaryFn
	Binary BinaryFn
}

// Arity returns the number of operands the operation takes.
func (d Def) Arity() int {
	if d.Binary != nil {
		return 2
	}
	return 1
}

// Apply applies the operation to args.
func (d Def) Apply(args ...float64) (float64, error) {
	if len(args) != d.Arity() {
		return 0, ir.NewArityMismatchError(string(d.Op)+" operands", len(args), d.Arity())
	}
	if d.Binary != nil {
		return d.Binary(args[0], args[1])
	}
	return d.Unary(args[0])
}

// total lifts a function defined everywhere into a UnaryFn.
func total(f func(float64) float64) UnaryFn {
	return func(x float64) (float64, error) {
		return f(x), nil
	}
}

var forwardTable = map[ir.OpID]Def{
	ir.OpExp: {Op: ir.OpExp, Unary: total(math.Exp)},
	ir.OpLog: {Op: ir.OpLog, Unary: func(x float64) (float64, error) {
		if x <= 0 {
			return 0, domainError(ir.OpLog, "argument must be positive", x)
		}
		return math.Log(x), nil
	}},
	ir.OpTanh: {Op: ir.OpTanh, Unary: total(math.Tanh)},
	ir.OpAtanh: {Op: ir.OpAtanh, Unary: func(x float64) (float64, error) {
		if x <= -1 || x >= 1 {
			return 0, domainError(ir.OpAtanh, "argument must be in (-1, 1)", x)
		}
		return math.Atanh(x), nil
	}},
	ir.OpSin: {Op: ir.OpSin, Unary: total(math.Sin)},
	ir.OpAsin: {Op: ir.OpAsin, Unary: func(x float64) (float64, error) {
		if x < -1 || x > 1 {
			return 0, domainError(ir.OpAsin, "argument must be in [-1, 1]", x)
		}
		return math.Asin(x), nil
	}},
	ir.OpCos: {Op: ir.OpCos, Unary: total(math.Cos)},
	ir.OpAcos: {Op: ir.OpAcos, Unary: func(x float64) (float64, error) {
		if x < -1 || x > 1 {
			return 0, domainError(ir.OpAcos, "argument must be in [-1, 1]", x)
		}
		return math.Acos(x), nil
	}},
	ir.OpSinh:  {Op: ir.OpSinh, Unary: total(math.Sinh)},
	ir.OpAsinh: {Op: ir.OpAsinh, Unary: total(math.Asinh)},
	ir.OpSqrt: {Op: ir.OpSqrt, Unary: func(x float64) (float64, error) {
		if x < 0 {
			return 0, domainError(ir.OpSqrt, "argument must be non-negative", x)
		}
		return math.Sqrt(x), nil
	}},
	ir.OpSquare: {Op: ir.OpSquare, Unary: total(func(x float64) float64 { return x * x })},
	ir.OpNeg:    {Op: ir.OpNeg, Unary: total(func(x float64) float64 { return -x })},
	ir.OpRecip: {Op: ir.OpRecip, Unary: func(x float64) (float64, error) {
		if x == 0 {
			return 0, domainError(ir.OpRecip, "argument must be non-zero", x)
		}
		return 1 / x, nil
	}},
	ir.OpLog1p: {Op: ir.OpLog1p, Unary: func(x float64) (float64, error) {
		if x <= -1 {
			return 0, domainError(ir.OpLog1p, "argument must be greater than -1", x)
		}
		return math.Log1p(x), nil
	}},
	ir.OpExpm1: {Op: ir.OpExpm1, Unary: total(math.Expm1)},
	ir.OpCbrt:  {Op: ir.OpCbrt, Unary: total(math.Cbrt)},
	ir.OpCube:  {Op: ir.OpCube, Unary: total(func(x float64) float64 { return x * x * x })},

	ir.OpAdd: {Op: ir.OpAdd, Binary: func(x, y float64) (float64, error) { return x + y, nil }},
	ir.OpSub: {Op: ir.OpSub, Binary: func(x, y float64) (float64, error) { return x - y, nil }},
	ir.OpMul: {Op: ir.OpMul, Binary: func(x, y float64) (float64, error) { return x * y, nil }},
	ir.OpDiv: {Op: ir.OpDiv, Binary: func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, domainError(ir.OpDiv, "divisor must be non-zero", x, y)
		}
		return x / y, nil
	}},
}

// Forward returns the forward definition of op.
func Forward(op ir.OpID) (Def, error) {
	def, ok := forwardTable[op]
	if !ok {
		return Def{}, ir.NewUnknownOperationError(op)
	}
	return def, nil
}
