package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
	"github.com/gradient-ai/jax-gradient/internal/testutil"
	"github.com/gradient-ai/jax-gradient/internal/trace"
)

func TestEvaluate_ExpTanh(t *testing.T) {
	out, err := Evaluate(testutil.ExpTanhProgram(), nil, 1.0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, math.Exp(math.Tanh(1.0)), out[0], 1e-15)
}

func TestEvaluate_MatchesDirectComputation(t *testing.T) {
	p, err := trace.Trace(func(b *trace.Builder, x trace.Value) trace.Value {
		return b.Sin(b.Add(b.Square(x), b.Const(1)))
	}, 0.5)
	require.NoError(t, err)

	for _, x := range []float64{-2, 0, 0.5, 3} {
		out, err := Evaluate(p, nil, x)
		require.NoError(t, err)
		assert.InDelta(t, math.Sin(x*x+1), out[0], 1e-12)
	}
}

func TestEvaluate_Constvars(t *testing.T) {
	p := testutil.ScaledProgram()

	out, err := Evaluate(p, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{6.5}, out, "default k=2")

	out, err = Evaluate(p, ir.Bindings{"k": 10}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{30.5}, out)

	_, err = Evaluate(p, ir.Bindings{"nope": 1}, 3)
	assert.True(t, ir.IsUnboundVariable(err))
}

func TestEvaluate_MultipleOutputs(t *testing.T) {
	p, err := trace.TraceN(func(b *trace.Builder, xs []trace.Value) []trace.Value {
		return []trace.Value{b.Sub(xs[0], xs[1]), b.Div(xs[0], xs[1]), xs[0]}
	}, 1, 1)
	require.NoError(t, err)

	out, err := Evaluate(p, nil, 6, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 6}, out)
}

func TestEvaluate_ArityMismatch(t *testing.T) {
	p := testutil.ExpTanhProgram()

	_, err := Evaluate(p, nil)
	assert.True(t, ir.IsArityMismatch(err))

	_, err = Evaluate(p, nil, 1, 2)
	assert.True(t, ir.IsArityMismatch(err))
}

func TestEvaluate_UnboundVariable(t *testing.T) {
	// b reads c before c is written.
	p := &ir.Program{
		Inputs: []ir.Ref{ir.Var("a")},
		Instructions: []ir.Instruction{
			{Op: ir.OpTanh, Inputs: []ir.Ref{ir.Var("c")}, Output: ir.Var("b")},
			{Op: ir.OpExp, Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Var("c")},
		},
		Outputs: []ir.Ref{ir.Var("b")},
	}

	_, err := Evaluate(p, nil, 1)
	require.Error(t, err)
	assert.True(t, ir.IsUnboundVariable(err))

	var e *ir.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "c", e.Var)
	assert.Equal(t, ir.OpTanh, e.Op)
}

func TestEvaluate_UnboundOutput(t *testing.T) {
	p := testutil.ExpTanhProgram()
	p.Outputs = []ir.Ref{ir.Var("z")}

	_, err := Evaluate(p, nil, 1)
	assert.True(t, ir.IsUnboundVariable(err))
}

func TestEvaluate_UnknownOperation(t *testing.T) {
	p := testutil.ChainProgram("bad", "frobnicate")

	_, err := Evaluate(p, nil, 1)
	assert.True(t, ir.IsUnknownOperation(err))
}

func TestEvaluate_DomainErrorPropagatesUnchanged(t *testing.T) {
	p := testutil.ChainProgram("neg_log", ir.OpNeg, ir.OpLog)

	_, err := Evaluate(p, nil, 2)
	require.Error(t, err)

	de, ok := err.(*ops.DomainError)
	require.True(t, ok, "error is the *DomainError itself, got %T", err)
	assert.Equal(t, ir.OpLog, de.Op)
}

// Forward evaluation never consults the registry.
func TestEvaluate_IgnoresRegistry(t *testing.T) {
	saved := ops.Default
	t.Cleanup(func() { ops.Default = saved })
	ops.Default = ops.NewRegistry()

	out, err := Evaluate(testutil.ExpTanhProgram(), nil, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(math.Tanh(1.0)), out[0], 1e-15)
}

func TestEvaluate_DoesNotMutateProgram(t *testing.T) {
	p := testutil.ScaledProgram()
	before := ir.MustProgramID(p)

	_, err := Evaluate(p, ir.Bindings{"k": 7}, 1)
	require.NoError(t, err)
	assert.Equal(t, before, ir.MustProgramID(p))
	assert.Equal(t, 2.0, p.Consts[0].Value)
}
