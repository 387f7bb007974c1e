package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/testutil"
)

func TestValidateProgram_Errors(t *testing.T) {
	tests := []struct {
		name    string
		program *ir.Program
		codes   []string
	}{
		{
			name:    "valid",
			program: testutil.ExpTanhProgram(),
		},
		{
			name: "no inputs or outputs",
			program: &ir.Program{
				Instructions: []ir.Instruction{},
			},
			codes: []string{ErrProgramNoInputs, ErrProgramNoOutputs},
		},
		{
			name: "unknown op",
			program: &ir.Program{
				Inputs:       []ir.Ref{ir.Var("a")},
				Instructions: []ir.Instruction{{Op: "frobnicate", Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Var("b")}},
				Outputs:      []ir.Ref{ir.Var("b")},
			},
			codes: []string{ErrUnknownOperation},
		},
		{
			name: "arity",
			program: &ir.Program{
				Inputs:       []ir.Ref{ir.Var("a")},
				Instructions: []ir.Instruction{{Op: ir.OpAdd, Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Var("b")}},
				Outputs:      []ir.Ref{ir.Var("b")},
			},
			codes: []string{ErrArityMismatch},
		},
		{
			name: "duplicate",
			program: &ir.Program{
				Inputs:       []ir.Ref{ir.Var("a")},
				Consts:       []ir.Const{{Name: "a", Value: 1}},
				Instructions: []ir.Instruction{},
				Outputs:      []ir.Ref{ir.Var("a")},
			},
			codes: []string{ErrDuplicateName},
		},
		{
			name: "unbound output",
			program: &ir.Program{
				Inputs:       []ir.Ref{ir.Var("a")},
				Instructions: []ir.Instruction{},
				Outputs:      []ir.Ref{ir.Var("z")},
			},
			codes: []string{ErrUnboundOutput},
		},
		{
			name: "literal assignment",
			program: &ir.Program{
				Inputs:       []ir.Ref{ir.Var("a")},
				Instructions: []ir.Instruction{{Op: ir.OpExp, Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Lit(1)}},
				Outputs:      []ir.Ref{ir.Var("a")},
			},
			codes: []string{ErrInvalidAssignment},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var codes []string
			for _, e := range Validate(tt.program) {
				codes = append(codes, e.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestValidateProgramValue_Errors(t *testing.T) {
	assert.Empty(t, Validate(*testutil.ScaledProgram()))
}

func TestValidateInverse_Mismatch(t *testing.T) {
	assert.Empty(t, Validate(InverseAlias{Op: ir.OpSquare, InverseOf: ir.OpSqrt}))

	errs := Validate(&InverseAlias{Op: ir.OpAdd, InverseOf: "nope"})
	require.Len(t, errs, 2)
	assert.Equal(t, ErrInverseNotUnary, errs[0].Code)
	assert.Equal(t, ErrInverseUnknownTarget, errs[1].Code)
}

func TestValidate_UnsupportedType(t *testing.T) {
	errs := Validate("nope")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
	assert.Equal(t, "[E100] type: unsupported IR type: string", errs[0].Error())
}

func TestValidationError_WithLine(t *testing.T) {
	e := ValidationError{Field: "outputs", Message: "m", Code: ErrProgramNoOutputs, Line: 4}
	assert.Equal(t, "[E102] line 4: outputs: m", e.Error())
}
