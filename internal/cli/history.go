package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/queryir"
	"github.com/gradient-ai/jax-gradient/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Program   string // optional - list the runs of one program
	Direction string // optional - forward or inverse runs only
	Failed    bool   // failed runs only
	Limit     int
}

// HistoryEntry is one run in a program's history.
type HistoryEntry struct {
	Seq       int64       `json:"seq"`
	RunToken  string      `json:"run_token"`
	Direction string      `json:"direction"`
	Inputs    []float64   `json:"inputs"`
	Consts    ir.Bindings `json:"consts,omitempty"`
	Outputs   []float64   `json:"outputs"`
	ErrorCode string      `json:"error_code,omitempty"`
}

// ProgramSummary is one program in the summary listing.
type ProgramSummary struct {
	ProgramID string `json:"id"`
	Name      string `json:"name"`
	Forward   int    `json:"forward"`
	Inverse   int    `json:"inverse"`
	Failed    int    `json:"failed"`
	LastSeq   int64  `json:"last_seq"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded programs and runs",
		Long: `List the programs recorded in a run database with their run counts,
or, with --program, every run of one program in seq order.

Examples:
  jaxinv history --db ./runs.db
  jaxinv history --db ./runs.db --program expTanh
  jaxinv history --db ./runs.db --program expTanh --direction inverse --failed
  jaxinv history --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Program, "program", "", "show the runs of this program")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "with --program, only runs in this direction (forward|inverse)")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "with --program, only failed runs")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "with --program, show at most this many runs")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Program != "" {
		return programHistory(ctx, st, opts, formatter)
	}
	if opts.Direction != "" || opts.Failed || opts.Limit != 0 {
		_ = formatter.Error(ErrCodeBadFlag, "--direction, --failed and --limit need --program", nil)
		return NewExitError(ExitCommandError, "run filters need --program")
	}

	summaries, err := st.SummarizeRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	programs := make([]ProgramSummary, 0, len(summaries))
	for _, s := range summaries {
		programs = append(programs, ProgramSummary(s))
	}

	if opts.Format == "json" {
		return formatter.Success(programs)
	}
	if len(programs) == 0 {
		fmt.Fprintln(formatter.Writer, "No programs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(programs))
	for _, p := range programs {
		rows = append(rows, []string{
			p.Name,
			shortID(p.ProgramID),
			strconv.Itoa(p.Forward),
			strconv.Itoa(p.Inverse),
			strconv.Itoa(p.Failed),
			strconv.FormatInt(p.LastSeq, 10),
		})
	}
	fmt.Fprintln(formatter.Writer, renderTable([]string{"Program", "ID", "Forward", "Inverse", "Failed", "Last seq"}, rows))
	return nil
}

// programHistory lists the runs of the program recorded under opts.Program
// that pass the run filters.
func programHistory(ctx context.Context, st *store.Store, opts *HistoryOptions, formatter *OutputFormatter) error {
	name := opts.Program
	rec, err := st.ReadProgramByName(ctx, name)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownName, fmt.Sprintf("no program named %q recorded", name), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("program %s", name), err)
	}

	q := historyQuery(rec.ID, opts)
	if errs := queryir.Validate(q); len(errs) > 0 {
		_ = formatter.Error(ErrCodeBadFlag, errs[0].Error(), nil)
		return WrapExitError(ExitCommandError, "invalid run filter", errs[0])
	}

	runs, err := st.QueryRuns(ctx, q)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, HistoryEntry{
			Seq:       run.Seq,
			RunToken:  run.RunToken,
			Direction: string(run.Direction),
			Inputs:    run.Inputs,
			Consts:    run.Consts,
			Outputs:   run.Outputs,
			ErrorCode: run.ErrorCode,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	fmt.Fprintf(formatter.Writer, "%s (%s)\n%s\n\n", rec.Name, shortID(rec.ID), rec.Program.String())
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := formatValues(e.Outputs)
		if e.ErrorCode != "" {
			result = e.ErrorCode
		}
		inputs := formatValues(e.Inputs)
		if len(e.Consts) > 0 {
			inputs += " " + formatBindings(e.Consts)
		}
		rows = append(rows, []string{strconv.FormatInt(e.Seq, 10), e.RunToken, e.Direction, inputs, result})
	}
	fmt.Fprintln(formatter.Writer, renderTable([]string{"Seq", "Run token", "Direction", "Inputs", "Result"}, rows))
	return nil
}

// historyQuery selects the runs of programID that pass the history flags.
func historyQuery(programID string, opts *HistoryOptions) queryir.Query {
	var direction, failed queryir.Predicate
	if opts.Direction != "" {
		direction = queryir.ForDirection(ir.Direction(opts.Direction))
	}
	if opts.Failed {
		failed = queryir.Failed{Want: true}
	}
	q := queryir.Where(queryir.ForProgram(programID), direction, failed)
	q.Limit = opts.Limit
	return q
}

// formatBindings renders constvar overrides as "[k=10]", sorted by name.
func formatBindings(b ir.Bindings) string {
	names := slices.Sorted(maps.Keys(b))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + ir.FormatFloat(b[name])
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// renderTable renders rows as a bordered table with a highlighted header.
func renderTable(headers []string, rows [][]string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return table.String()
}
