package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/compiler"
	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledProgram is one compiled program with its content-addressed ID.
type CompiledProgram struct {
	ID      string     `json:"id"`
	Listing string     `json:"listing"`
	Program ir.Program `json:"program"`
}

// CompilationResult holds the compiled programs and inverse aliases.
type CompilationResult struct {
	Programs []CompiledProgram        `json:"programs"`
	Inverses []compiler.InverseAlias `json:"inverses"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE specs to program listings",
		Long: `Compile the function, program and inverse definitions in a CUE
directory.

Functions are traced at their example input; programs are read as written.
Each program is listed with its content-addressed ID.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)

	// Directory not found, no files, CUE syntax errors
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := loadErrorCode(loadErrors[0])
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, p := range loadResult.Module.Programs {
		formatter.VerboseLog("Compiled %s: %d instruction(s)", p.Name, len(p.Instructions))
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := buildCompilationResult(loadResult.Module)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func buildCompilationResult(m *compiler.Module) (*CompilationResult, error) {
	result := &CompilationResult{
		Programs: make([]CompiledProgram, 0, len(m.Programs)),
		Inverses: m.Inverses,
	}
	if result.Inverses == nil {
		result.Inverses = []compiler.InverseAlias{}
	}
	for _, p := range m.Programs {
		id, err := ir.ProgramID(&p)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", p.Name, err)
		}
		result.Programs = append(result.Programs, CompiledProgram{
			ID:      id,
			Listing: p.String(),
			Program: p,
		})
	}
	return result, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d program(s), %d inverse(s)\n\n", len(result.Programs), len(result.Inverses))

	for _, p := range result.Programs {
		fmt.Fprintf(w, "%s (%s)\n", p.Program.Name, shortID(p.ID))
		fmt.Fprintf(w, "%s\n\n", p.Listing)
	}

	if len(result.Inverses) > 0 {
		fmt.Fprintln(w, "Inverses:")
		for _, inv := range result.Inverses {
			fmt.Fprintf(w, "  %s → %s\n", inv.Op, inv.InverseOf)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled programs to %s\n", outputFile)
	}

	return nil
}

// shortID abbreviates a content-addressed ID for text output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := loadErrorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := loadErrorCode(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeIRToFile writes the compilation result to a file as indented JSON.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Canonical JSON without indentation is used only for hashing
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
