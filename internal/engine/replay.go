package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// ReplayReport summarizes a replay of stored runs.
type ReplayReport struct {
	Checked    int
	Mismatches []ReplayMismatch
}

// OK reports whether every replayed run matched its record.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Err returns a REPLAY_MISMATCH RuntimeError naming the first mismatched
// run, or nil when every run matched.
func (r ReplayReport) Err() error {
	if r.OK() {
		return nil
	}
	return &RuntimeError{
		Code:    ErrCodeReplayMismatch,
		Message: fmt.Sprintf("%d of %d replayed run(s) differ from their record", len(r.Mismatches), r.Checked),
		RunID:   r.Mismatches[0].RunID,
	}
}

// ReplayMismatch describes one run whose replay disagreed with its record.
type ReplayMismatch struct {
	RunID         string
	WantOutputs   []float64
	GotOutputs    []float64
	WantErrorCode string
	GotErrorCode  string
}

// Replay re-executes the stored runs of programID (all runs when empty)
// without recording anything, and reports runs whose outputs or error code
// differ from the record.
//
// Evaluation is deterministic, so a mismatch means the program body, the
// operation definitions or the registry changed since the run was recorded.
func (r *Runner) Replay(ctx context.Context, programID string) (ReplayReport, error) {
	var report ReplayReport
	if r.store == nil {
		return report, &RuntimeError{Code: ErrCodeNoStore, Message: "replay needs a store"}
	}

	runs, err := r.store.ReadRuns(ctx, programID)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	programs := make(map[string]*ir.Program)
	for _, run := range runs {
		p, ok := programs[run.ProgramID]
		if !ok {
			rec, err := r.store.ReadProgram(ctx, run.ProgramID)
			if err != nil {
				return report, fmt.Errorf("replay run %s: read program %s: %w", run.ID, run.ProgramID, err)
			}
			p = &rec.Program
			programs[run.ProgramID] = p
		}

		outputs, evalErr := r.replayOne(p, run)
		report.Checked++

		code := RunErrorCode(evalErr)
		if evalErr != nil {
			outputs = []float64{}
		}
		if code != run.ErrorCode || !sameValues(outputs, run.Outputs) {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				RunID:         run.ID,
				WantOutputs:   run.Outputs,
				GotOutputs:    outputs,
				WantErrorCode: run.ErrorCode,
				GotErrorCode:  code,
			})
			r.logger.Warn("replay mismatch",
				"run_id", run.ID,
				"program_id", run.ProgramID,
				"direction", run.Direction,
				"want_error_code", run.ErrorCode,
				"got_error_code", code,
			)
		}
	}

	r.logger.Info("replay complete",
		"checked", report.Checked,
		"mismatches", len(report.Mismatches),
	)
	return report, nil
}

func (r *Runner) replayOne(p *ir.Program, run ir.Run) ([]float64, error) {
	quota := NewQuotaEnforcer(r.maxSteps)
	switch run.Direction {
	case ir.DirectionForward:
		return evaluate(p, run.Consts, run.Inputs, quota)
	case ir.DirectionInverse:
		if len(run.Inputs) != 1 {
			return nil, ir.NewArityMismatchError("inverse run inputs", len(run.Inputs), 1)
		}
		x, err := invert(p, r.registry, run.Inputs[0], quota)
		if err != nil {
			return nil, err
		}
		return []float64{x}, nil
	default:
		return nil, fmt.Errorf("unknown direction %q", run.Direction)
	}
}

// sameValues compares bit patterns so NaN outputs replay as equal.
func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			if !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
				return false
			}
		}
	}
	return true
}
