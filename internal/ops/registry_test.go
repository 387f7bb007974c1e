package ops

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup(ir.OpExp)
	require.Error(t, err)
	assert.True(t, ir.IsUnregisteredOperation(err))

	var e *ir.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ir.OpExp, e.Op)

	r.Register(ir.OpExp, func(y float64) (float64, error) { return math.Log(y), nil })
	inv, err := r.Lookup(ir.OpExp)
	require.NoError(t, err)
	got, err := inv(math.E)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(ir.OpNeg, func(y float64) (float64, error) { return 1, nil })
	r.Register(ir.OpNeg, func(y float64) (float64, error) { return 2, nil })

	inv, err := r.Lookup(ir.OpNeg)
	require.NoError(t, err)
	got, _ := inv(0)
	assert.Equal(t, 2.0, got)
}

func TestRegistry_NilRemoves(t *testing.T) {
	r := NewStandardRegistry()
	require.True(t, r.Has(ir.OpTanh))

	r.Register(ir.OpTanh, nil)
	assert.False(t, r.Has(ir.OpTanh))
	_, err := r.Lookup(ir.OpTanh)
	assert.True(t, ir.IsUnregisteredOperation(err))
}

func TestRegistry_Alias(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Alias(ir.OpSquare, ir.OpSqrt))

	inv, err := r.Lookup(ir.OpSquare)
	require.NoError(t, err)
	got, err := inv(9)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	assert.Error(t, r.Alias(ir.OpAdd, ir.OpSqrt), "binary op cannot be inverted")
	assert.Error(t, r.Alias(ir.OpExp, ir.OpMul), "binary inverse")
	assert.Error(t, r.Alias(ir.OpExp, "frobnicate"))
	assert.Error(t, r.Alias("frobnicate", ir.OpLog))
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewStandardRegistry()
	c := r.Clone()
	c.Register(ir.OpExp, nil)

	assert.True(t, r.Has(ir.OpExp))
	assert.False(t, c.Has(ir.OpExp))
	assert.Len(t, c.Ops(), len(r.Ops())-1)
}

func TestStandardRegistry_CoversUnaryOps(t *testing.T) {
	r := NewStandardRegistry()
	var unary []ir.OpID
	for _, op := range ir.KnownOps() {
		if ir.Arity(op) == 1 {
			unary = append(unary, op)
		}
	}
	assert.Equal(t, unary, r.Ops())

	for _, op := range []ir.OpID{ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv} {
		assert.False(t, r.Has(op), op)
	}
}

// Each standard inverse undoes its forward op at points inside the domain.
func TestStandardInverses_RoundTrip(t *testing.T) {
	samples := map[ir.OpID][]float64{
		ir.OpExp:    {-2, 0, 1, 3},
		ir.OpLog:    {0.1, 1, 10},
		ir.OpTanh:   {-1, 0, 0.5, 1},
		ir.OpAtanh:  {-0.9, 0, 0.7},
		ir.OpSin:    {-1.2, 0, 1.0},
		ir.OpAsin:   {-1, 0, 0.3, 1},
		ir.OpCos:    {0.1, 1, 3},
		ir.OpAcos:   {-1, 0, 0.4, 1},
		ir.OpSinh:   {-2, 0, 2},
		ir.OpAsinh:  {-5, 0, 5},
		ir.OpSqrt:   {0, 2, 9},
		ir.OpSquare: {0, 0.5, 3},
		ir.OpNeg:    {-1, 0, 4},
		ir.OpRecip:  {-2, 0.5, 8},
		ir.OpLog1p:  {-0.5, 0, 2},
		ir.OpExpm1:  {-1, 0, 1},
		ir.OpCbrt:   {-8, 0, 27},
		ir.OpCube:   {-2, 0, 1.5},
	}

	r := NewStandardRegistry()
	for op, xs := range samples {
		def, err := Forward(op)
		require.NoError(t, err)
		inv, err := r.Lookup(op)
		require.NoError(t, err)

		for _, x := range xs {
			t.Run(fmt.Sprintf("%s/%v", op, x), func(t *testing.T) {
				y, err := def.Apply(x)
				require.NoError(t, err)
				back, err := inv(y)
				require.NoError(t, err)
				assert.InDelta(t, x, back, 1e-9)
			})
		}
	}
}

func TestStandardInverses_RangeGuards(t *testing.T) {
	r := NewStandardRegistry()
	for op, y := range map[ir.OpID]float64{
		ir.OpSqrt:   -1,
		ir.OpAsin:   2,
		ir.OpAcos:   -0.1,
		ir.OpExp:    0,
		ir.OpTanh:   1,
		ir.OpSquare: -4,
		ir.OpAtanh:  math.Inf(1),
	} {
		inv, err := r.Lookup(op)
		require.NoError(t, err)
		_, err = inv(y)
		assert.True(t, IsDomainError(err), "%s inverse at %v: %v", op, y, err)
	}
}

func TestStandardInverseOf_Pairs(t *testing.T) {
	inv, ok := StandardInverseOf(ir.OpExp)
	assert.True(t, ok)
	assert.Equal(t, ir.OpLog, inv)

	_, ok = StandardInverseOf(ir.OpAdd)
	assert.False(t, ok)
}

func TestDefault_StandardInverses(t *testing.T) {
	inv, err := Lookup(ir.OpExp)
	require.NoError(t, err)
	got, err := inv(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRegister_UpdatesDefault(t *testing.T) {
	saved := Default
	Default = saved.Clone()
	t.Cleanup(func() { Default = saved })

	Register(ir.OpExp, func(y float64) (float64, error) { return y * 10, nil })

	inv, err := Lookup(ir.OpExp)
	require.NoError(t, err)
	got, err := inv(2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	// The saved standard registry is untouched.
	std, err := saved.Lookup(ir.OpExp)
	require.NoError(t, err)
	got, err = std(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	r := NewStandardRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := r.Lookup(ir.OpTanh)
				assert.NoError(t, err)
			}
		}()
	}
	r.Register(ir.OpCube, func(y float64) (float64, error) { return math.Cbrt(y), nil })
	wg.Wait()
}

func TestRegistry_InverseOp(t *testing.T) {
	r := NewStandardRegistry()
	inv, ok := r.InverseOp(ir.OpTanh)
	assert.True(t, ok)
	assert.Equal(t, ir.OpAtanh, inv)

	r.Register(ir.OpTanh, func(y float64) (float64, error) { return math.Atanh(y), nil })
	_, ok = r.InverseOp(ir.OpTanh)
	assert.False(t, ok, "opaque function has no op")

	require.NoError(t, r.Alias(ir.OpTanh, ir.OpAtanh))
	inv, ok = r.InverseOp(ir.OpTanh)
	assert.True(t, ok)
	assert.Equal(t, ir.OpAtanh, inv)

	_, ok = NewRegistry().InverseOp(ir.OpExp)
	assert.False(t, ok)
}
