package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/gradient-ai/jax-gradient/internal/compiler"
	"github.com/gradient-ai/jax-gradient/internal/engine"
	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
	"github.com/gradient-ai/jax-gradient/internal/store"
	"github.com/gradient-ai/jax-gradient/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenario cases through an engine.Runner with a deterministic clock
// and run tokens.
type Harness struct {
	store   *store.Store
	runner  *engine.Runner
	program *ir.Program
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load and compile the scenario's CUE specs
//  2. Build the inverse registry and a Runner over an in-memory store
//  3. Execute the cases in order
//  4. Read the run log back from the store
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	module, err := loadSpecs(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	program, ok := module.Program(scenario.Function)
	if !ok {
		return nil, fmt.Errorf("function %q not found in specs (have %v)", scenario.Function, module.Names())
	}

	base := ops.NewStandardRegistry()
	if scenario.Registry == RegistryEmpty {
		base = ops.NewRegistry()
	}
	reg, err := module.Registry(base)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		program: program,
		runner: engine.NewRunner(
			engine.WithStore(st),
			engine.WithClock(testutil.NewDeterministicClock()),
			engine.WithTokenGenerator(testutil.NewCountingRunTokens(scenario.RunToken)),
			engine.WithRegistry(reg),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		),
	}

	result := NewResult()
	result.Program = program.String()
	if inv, err := engine.InverseProgram(program, reg); err != nil {
		result.Inverse = engine.RunErrorCode(err)
	} else {
		result.Inverse = inv.String()
	}

	for i, c := range scenario.Cases {
		for _, caseErr := range h.runCase(ctx, i, c) {
			result.AddError(caseErr.Error())
		}
	}

	runs, err := st.ReadRuns(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	result.Runs = runs

	return result, nil
}

// loadSpecs compiles the given CUE files as one package. They must share a
// directory.
func loadSpecs(specs []string) (*compiler.Module, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no spec files")
	}
	dir := filepath.Dir(specs[0])
	files := make([]string, len(specs))
	for i, spec := range specs {
		if filepath.Dir(spec) != dir {
			return nil, fmt.Errorf("spec %s: not in %s", spec, dir)
		}
		files[i] = filepath.Base(spec)
	}
	return compiler.Load(dir, files...)
}

// runCase executes one case and returns every check that failed.
func (h *Harness) runCase(ctx context.Context, index int, c Case) []*CaseError {
	var errs []*CaseError
	var failedCode string

	y := c.Output
	if c.forward() {
		run, err := h.runner.Evaluate(ctx, h.program, c.Consts, *c.Input)
		switch {
		case err != nil:
			failedCode = run.ErrorCode
			if run.ErrorCode == "" {
				failedCode = engine.RunErrorCode(err)
			}
		case len(run.Outputs) == 0:
			errs = append(errs, &CaseError{Case: index, Check: CheckForward, Expected: "a value", Actual: "no outputs"})
		default:
			if c.Output != nil {
				if e := checkClose(index, CheckForward, *c.Output, run.Outputs[0], c.tolerance()); e != nil {
					errs = append(errs, e)
				}
			}
			got := run.Outputs[0]
			y = &got
		}
	}

	if failedCode == "" && c.inverse() && y != nil {
		run, err := h.runner.Invert(ctx, h.program, *y)
		switch {
		case err != nil:
			failedCode = run.ErrorCode
			if failedCode == "" {
				failedCode = engine.RunErrorCode(err)
			}
		case c.Inverse != nil:
			if e := checkClose(index, CheckInverse, *c.Inverse, run.Outputs[0], c.tolerance()); e != nil {
				errs = append(errs, e)
			}
		}
	}

	if e := checkErrorCode(index, c.ExpectError, failedCode); e != nil {
		errs = append(errs, e)
	}
	return errs
}
