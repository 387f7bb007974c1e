package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/engine"
	"github.com/gradient-ai/jax-gradient/internal/ops"
	"github.com/gradient-ai/jax-gradient/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Program  string // optional - replay one program's runs only
	Specs    string // optional - specs dir whose inverse blocks extend the registry
}

// ReplayMismatchResult describes one run that replayed differently.
type ReplayMismatchResult struct {
	RunID         string    `json:"run_id"`
	WantOutputs   []float64 `json:"want_outputs"`
	GotOutputs    []float64 `json:"got_outputs"`
	WantErrorCode string    `json:"want_error_code,omitempty"`
	GotErrorCode  string    `json:"got_error_code,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Checked          int                    `json:"checked"`
	Mismatches       []ReplayMismatchResult `json:"mismatches"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute every recorded run from its stored program and compare
the outputs and error codes with the record. Nothing new is recorded.

Inverse runs are replayed with the standard registry, extended by the
inverse blocks of --specs when given.

Exit codes:
  0 - Every run replayed identically
  1 - At least one run disagreed with its record
  2 - Command error (database not found, etc.)

Examples:
  jaxinv replay --db ./runs.db
  jaxinv replay --db ./runs.db --program expTanh
  jaxinv replay --db ./runs.db --specs ./specs --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Program, "program", "", "replay this program only")
	cmd.Flags().StringVar(&opts.Specs, "specs", "", "specs dir with inverse definitions")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg := ops.NewStandardRegistry()
	if opts.Specs != "" {
		loadResult, loadErrors := LoadSpecs(opts.Specs, LoadModeFailFast)
		if len(loadErrors) > 0 {
			code, message := loadErrorCode(loadErrors[0])
			_ = formatter.Error(code, message, nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
		}
		var err error
		if reg, err = loadResult.Module.Registry(reg); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to build registry", err)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	programID := ""
	if opts.Program != "" {
		rec, err := st.ReadProgramByName(ctx, opts.Program)
		if err != nil {
			_ = formatter.Error(ErrCodeUnknownName, fmt.Sprintf("no program named %q recorded", opts.Program), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("program %s", opts.Program), err)
		}
		programID = rec.ID
	}

	runner := engine.NewRunner(
		engine.WithStore(st),
		engine.WithRegistry(reg),
		engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
	)
	report, err := runner.Replay(ctx, programID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Checked:          report.Checked,
		Mismatches:       make([]ReplayMismatchResult, 0, len(report.Mismatches)),
		AllDeterministic: report.OK(),
	}
	for _, m := range report.Mismatches {
		result.Mismatches = append(result.Mismatches, ReplayMismatchResult(m))
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result, report.Err())
	}
	return outputReplayText(formatter, result, report.Err())
}

// replayExitError turns a replay mismatch into exit code 1.
func replayExitError(mismatch error) error {
	if engine.IsReplayMismatch(mismatch) {
		return WrapExitError(ExitFailure, "determinism verification failed", mismatch)
	}
	return mismatch
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult, mismatch error) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if mismatch != nil {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    string(engine.ErrCodeReplayMismatch),
			Message: mismatch.Error(),
		}
	}

	if err := formatter.encode(response); err != nil {
		return err
	}
	return replayExitError(mismatch)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult, mismatch error) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.Checked)
	fmt.Fprintln(w)

	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "✗ Run: %s\n", m.RunID)
		fmt.Fprintf(w, "  recorded: %s\n", describeOutcome(m.WantOutputs, m.WantErrorCode))
		fmt.Fprintf(w, "  replayed: %s\n", describeOutcome(m.GotOutputs, m.GotErrorCode))
		fmt.Fprintln(w)
	}

	if mismatch == nil {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return replayExitError(mismatch)
}

func describeOutcome(outputs []float64, code string) string {
	if code != "" {
		return code
	}
	return "(" + formatValues(outputs) + ")"
}
