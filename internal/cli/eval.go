package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/engine"
	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
	"github.com/gradient-ai/jax-gradient/internal/store"
)

// EvalOptions holds flags for the eval and invert commands.
type EvalOptions struct {
	*RootOptions
	Database string
	Inputs   []float64         // eval: input values
	Consts   map[string]string // eval: constvar overrides
	Output   float64           // invert: output value

	// TokenGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.RunTokenGenerator
}

// RunResult is the JSON payload of the eval and invert commands.
type RunResult struct {
	Program   string      `json:"program"`
	Direction string      `json:"direction"`
	Inputs    []float64   `json:"inputs"`
	Consts    ir.Bindings `json:"consts,omitempty"`
	Outputs   []float64   `json:"outputs"`
	RunToken  string      `json:"run_token"`
	RunID     string      `json:"run_id"`
	Seq       int64       `json:"seq"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <specs-dir> <name>",
		Short: "Evaluate a function or program forward",
		Long: `Evaluate a function or program at the given inputs.

Constvars keep their defaults unless overridden with --const. With --db the
program and the run are recorded in a SQLite database.

Examples:
  jaxinv eval ./specs expTanh --inputs 1.0
  jaxinv eval ./specs scaled --inputs 3 --const k=10 --db ./runs.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64SliceVar(&opts.Inputs, "inputs", nil, "input values, comma separated (required)")
	_ = cmd.MarkFlagRequired("inputs")
	cmd.Flags().StringToStringVar(&opts.Consts, "const", nil, "constvar override name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

// NewInvertCommand creates the invert command.
func NewInvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invert <specs-dir> <name>",
		Short: "Compute the input that produces an output",
		Long: `Invert a single-input, single-output function at the given output.

The program is walked from its last instruction to its first, applying the
registered inverse of each operation. Inverse blocks in the specs extend the
standard registry.

Exit codes:
  0 - Inversion succeeded
  1 - Inversion failed (NOT_INVERTIBLE, UNREGISTERED_OPERATION, DOMAIN_ERROR, ...)
  2 - Command error

Examples:
  jaxinv invert ./specs expTanh --output 2.1416876847
  jaxinv invert ./specs expTanh --output 2.1416876847 --db ./runs.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Output, "output", 0, "output value to invert (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runEval(opts *EvalOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newRunFormatter(opts, cmd)

	consts, err := parseConsts(opts.Consts)
	if err != nil {
		_ = formatter.Error(ErrCodeBadFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --const", err)
	}

	return withRunner(opts, formatter, specsDir, name, cmd, func(ctx context.Context, r *engine.Runner, p *ir.Program) (ir.Run, error) {
		return r.Evaluate(ctx, p, consts, opts.Inputs...)
	})
}

func runInvert(opts *EvalOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newRunFormatter(opts, cmd)

	return withRunner(opts, formatter, specsDir, name, cmd, func(ctx context.Context, r *engine.Runner, p *ir.Program) (ir.Run, error) {
		return r.Invert(ctx, p, opts.Output)
	})
}

func newRunFormatter(opts *EvalOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// withRunner loads the named program, builds a Runner over the optional
// database and reports the run returned by call.
func withRunner(
	opts *EvalOptions,
	formatter *OutputFormatter,
	specsDir, name string,
	cmd *cobra.Command,
	call func(ctx context.Context, r *engine.Runner, p *ir.Program) (ir.Run, error),
) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, reg, err := loadProgram(specsDir, name)
	if err != nil {
		code, message := loadErrorCode(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	runner, closeStore, err := openRunner(ctx, opts.Database, reg, opts.TokenGenerator, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore()

	run, err := call(ctx, runner, p)
	if err != nil {
		code := run.ErrorCode
		if code == "" {
			code = engine.RunErrorCode(err)
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s %s failed", run.Direction, name), err)
	}

	result := RunResult{
		Program:   name,
		Direction: string(run.Direction),
		Inputs:    run.Inputs,
		Consts:    run.Consts,
		Outputs:   run.Outputs,
		RunToken:  run.RunToken,
		RunID:     run.ID,
		Seq:       run.Seq,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.VerboseLog("run %s (token %s, seq %d)", run.ID, run.RunToken, run.Seq)
	return formatter.Success(formatValues(run.Outputs))
}

// openRunner returns a Runner that records into the database at path, or
// an unrecorded Runner when path is empty. The returned func closes the
// database.
func openRunner(
	ctx context.Context,
	path string,
	reg *ops.Registry,
	tokens engine.RunTokenGenerator,
	logger *slog.Logger,
) (*engine.Runner, func(), error) {
	runnerOpts := []engine.RunnerOption{
		engine.WithRegistry(reg),
		engine.WithLogger(logger),
	}
	if tokens != nil {
		runnerOpts = append(runnerOpts, engine.WithTokenGenerator(tokens))
	}

	if path == "" {
		return engine.NewRunner(runnerOpts...), func() {}, nil
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}
	runner, err := engine.OpenRunner(ctx, st, runnerOpts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return runner, closeStore, nil
}

// parseConsts parses --const values.
func parseConsts(raw map[string]string) (ir.Bindings, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	consts := make(ir.Bindings, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("const %s: %q is not a number", name, s)
		}
		consts[name] = v
	}
	return consts, nil
}

// formatValues renders values with ir.FormatFloat, comma separated.
func formatValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = ir.FormatFloat(v)
	}
	return strings.Join(parts, ", ")
}
