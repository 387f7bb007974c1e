package ir

import "slices"

// OpID identifies an elementary operation.
// Values are stable strings; they appear in stored programs and CUE definitions.
type OpID string

// Unary elementary operations.
const (
	OpExp    OpID = "exp"
	OpLog    OpID = "log"
	OpTanh   OpID = "tanh"
	OpAtanh  OpID = "atanh"
	OpSin    OpID = "sin"
	OpAsin   OpID = "asin"
	OpCos    OpID = "cos"
	OpAcos   OpID = "acos"
	OpSinh   OpID = "sinh"
	OpAsinh  OpID = "asinh"
	OpSqrt   OpID = "sqrt"
	OpSquare OpID = "square"
	OpNeg    OpID = "neg"
	OpRecip  OpID = "recip"
	OpLog1p  OpID = "log1p"
	OpExpm1  OpID = "expm1"
	OpCbrt   OpID = "cbrt"
	OpCube   OpID = "cube"
)

// Binary elementary operations. These can be traced and evaluated forward,
// but have no inversion rule.
const (
	OpAdd OpID = "add"
	OpSub OpID = "sub"
	OpMul OpID = "mul"
	OpDiv OpID = "div"
)

// opArity is the closed set of operations a program may reference.
var opArity = map[OpID]int{
	OpExp:    1,
	OpLog:    1,
	OpTanh:   1,
	OpAtanh:  1,
	OpSin:    1,
	OpAsin:   1,
	OpCos:    1,
	OpAcos:   1,
	OpSinh:   1,
	OpAsinh:  1,
	OpSqrt:   1,
	OpSquare: 1,
	OpNeg:    1,
	OpRecip:  1,
	OpLog1p:  1,
	OpExpm1:  1,
	OpCbrt:   1,
	OpCube:   1,
	OpAdd:    2,
	OpSub:    2,
	OpMul:    2,
	OpDiv:    2,
}

// Arity returns the number of operands op takes, or 0 if op is unknown.
func Arity(op OpID) int {
	return opArity[op]
}

// IsKnownOp reports whether op belongs to the closed operation set.
func IsKnownOp(op OpID) bool {
	_, ok := opArity[op]
	return ok
}

// KnownOps returns every operation identifier in sorted order.
func KnownOps() []OpID {
	ops := make([]OpID, 0, len(opArity))
	for op := range opArity {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
