package store

import (
	"path/filepath"
	"testing"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testProgram returns exp(tanh(a)).
func testProgram() ir.Program {
	return ir.Program{
		Name:   "exp_tanh",
		Inputs: []ir.Ref{ir.Var("a")},
		Instructions: []ir.Instruction{
			{Op: ir.OpTanh, Inputs: []ir.Ref{ir.Var("a")}, Output: ir.Var("b")},
			{Op: ir.OpExp, Inputs: []ir.Ref{ir.Var("b")}, Output: ir.Var("c")},
		},
		Outputs:  []ir.Ref{ir.Var("c")},
		Examples: []float64{1},
	}
}

// createTestProgramRecord builds a record for p with its content-addressed ID.
func createTestProgramRecord(t *testing.T, p ir.Program, seq int64) ir.ProgramRecord {
	t.Helper()
	id, err := ir.ProgramID(&p)
	if err != nil {
		t.Fatalf("ProgramID() failed: %v", err)
	}
	return ir.ProgramRecord{
		ID:        id,
		Name:      p.Name,
		Program:   p,
		IRVersion: ir.IRVersion,
		Seq:       seq,
	}
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, programID string, direction ir.Direction, seq int64) ir.Run {
	return ir.Run{
		ID:        id,
		RunToken:  "run-" + id,
		ProgramID: programID,
		Direction: direction,
		Inputs:    []float64{1},
		Outputs:   []float64{2.1298},
		Seq:       seq,
	}
}
