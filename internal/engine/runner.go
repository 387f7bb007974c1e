package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
	"github.com/gradient-ai/jax-gradient/internal/store"
)

// Runner evaluates and inverts programs, stamping every call with a seq from
// its Clock and a run token, and recording it as an ir.Run.
//
// With a store attached, programs and runs are persisted; without one, runs
// are only returned to the caller. Runner is safe for concurrent use.
type Runner struct {
	store    *store.Store
	clock    Sequencer
	tokens   RunTokenGenerator
	registry *ops.Registry
	logger   *slog.Logger
	maxSteps int

	mu      sync.Mutex
	written map[string]bool // program IDs already persisted by this Runner
}

// Sequencer hands out strictly increasing seq numbers. Implemented by Clock
// and by the resettable test clock in internal/testutil.
type Sequencer interface {
	Next() int64
	Current() int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStore persists programs and runs to s.
func WithStore(s *store.Store) RunnerOption {
	return func(r *Runner) { r.store = s }
}

// WithClock sets the logical clock. Used to resume from a stored seq.
func WithClock(c Sequencer) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithTokenGenerator sets the run token generator.
func WithTokenGenerator(g RunTokenGenerator) RunnerOption {
	return func(r *Runner) { r.tokens = g }
}

// WithRegistry sets the inverse registry used by Invert.
func WithRegistry(reg *ops.Registry) RunnerOption {
	return func(r *Runner) { r.registry = reg }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithMaxSteps sets the maximum number of instructions a single call may
// execute.
//
// Default: 10000 steps (DefaultMaxSteps)
func WithMaxSteps(maxSteps int) RunnerOption {
	return func(r *Runner) { r.maxSteps = maxSteps }
}

// NewRunner creates a Runner. Defaults: a fresh Clock, UUIDv7 run tokens,
// ops.Default, slog.Default() and no store.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		clock:    NewClock(),
		tokens:   UUIDv7Generator{},
		registry: ops.Default,
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
		written:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenRunner creates a Runner backed by s whose clock resumes after the
// last seq recorded in s.
func OpenRunner(ctx context.Context, s *store.Store, opts ...RunnerOption) (*Runner, error) {
	last, err := s.GetLastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("open runner: %w", err)
	}
	opts = append([]RunnerOption{WithStore(s), WithClock(NewClockAt(last))}, opts...)
	return NewRunner(opts...), nil
}

// Registry returns the inverse registry the Runner inverts with.
func (r *Runner) Registry() *ops.Registry {
	return r.registry
}

// Record computes the program's content-addressed ID and, with a store
// attached, persists it under its name.
func (r *Runner) Record(ctx context.Context, p *ir.Program) (ir.ProgramRecord, error) {
	id, err := ir.ProgramID(p)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("record program %q: %w", p.Name, err)
	}
	rec := ir.ProgramRecord{
		ID:        id,
		Name:      p.Name,
		Program:   *p,
		IRVersion: ir.IRVersion,
	}

	key := id + "\x00" + p.Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil || r.written[key] {
		return rec, nil
	}

	rec.Seq = r.clock.Next()
	if err := r.store.WriteProgram(ctx, rec); err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("record program %q: %w", p.Name, err)
	}
	r.written[key] = true

	r.logger.Debug("program recorded",
		"program", p.Name,
		"id", id,
		"instructions", len(p.Instructions),
		"seq", rec.Seq,
	)
	return rec, nil
}

// Evaluate runs p forward and records the run. The returned run is
// populated even when evaluation fails; its ErrorCode then says why.
func (r *Runner) Evaluate(ctx context.Context, p *ir.Program, consts ir.Bindings, inputs ...float64) (ir.Run, error) {
	return r.execute(ctx, p, ir.DirectionForward, inputs, consts, func(q *QuotaEnforcer) ([]float64, error) {
		return evaluate(p, consts, inputs, q)
	})
}

// Invert inverts p at output y with the Runner's registry and records the
// run.
func (r *Runner) Invert(ctx context.Context, p *ir.Program, y float64) (ir.Run, error) {
	return r.execute(ctx, p, ir.DirectionInverse, []float64{y}, nil, func(q *QuotaEnforcer) ([]float64, error) {
		x, err := invert(p, r.registry, y, q)
		if err != nil {
			return nil, err
		}
		return []float64{x}, nil
	})
}

func (r *Runner) execute(
	ctx context.Context,
	p *ir.Program,
	direction ir.Direction,
	inputs []float64,
	consts ir.Bindings,
	eval func(q *QuotaEnforcer) ([]float64, error),
) (ir.Run, error) {
	rec, err := r.Record(ctx, p)
	if err != nil {
		return ir.Run{}, err
	}

	run := ir.Run{
		RunToken:  r.tokens.Generate(),
		ProgramID: rec.ID,
		Direction: direction,
		Inputs:    append([]float64(nil), inputs...),
		Seq:       r.clock.Next(),
	}
	if len(consts) > 0 {
		run.Consts = maps.Clone(consts)
	}
	run.ID, err = ir.RunID(run.RunToken, run.ProgramID, direction, run.Inputs, run.Consts, run.Seq)
	if err != nil {
		return ir.Run{}, fmt.Errorf("%s %q: %w", direction, p.Name, err)
	}

	quota := NewQuotaEnforcer(r.maxSteps)
	outputs, evalErr := eval(quota)
	run.ErrorCode = RunErrorCode(evalErr)
	if evalErr == nil {
		run.Outputs = outputs
	} else {
		run.Outputs = []float64{}
	}

	if r.store != nil {
		if err := r.store.WriteRun(ctx, run); err != nil {
			return run, fmt.Errorf("write run %s: %w", run.ID, err)
		}
	}

	if evalErr != nil {
		r.logger.Warn("run failed",
			"program", p.Name,
			"direction", direction,
			"run_token", run.RunToken,
			"error_code", run.ErrorCode,
			"error", evalErr,
			"seq", run.Seq,
		)
		return run, evalErr
	}

	r.logger.Info("run recorded",
		"program", p.Name,
		"direction", direction,
		"run_token", run.RunToken,
		"inputs", run.Inputs,
		"outputs", run.Outputs,
		"steps", quota.Current(),
		"seq", run.Seq,
	)
	return run, nil
}
