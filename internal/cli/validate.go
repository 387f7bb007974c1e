package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Check specs for single assignment and operation errors",
		Long: `Validate the CUE definitions in a directory.

Every block is compiled and every compiled program is checked: inputs and
outputs present, operations known with the right operand count, each
variable written once and before it is read. All errors are reported,
not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	validationErrors, err := validateSpecs(specsDir, formatter)
	if err != nil {
		code, message := loadErrorCode(err)
		return outputValidateError(formatter, code, message, nil)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter)
}

// validateSpecs compiles every block in specsDir and validates the results.
// The error is non-nil only when the directory cannot be loaded at all.
func validateSpecs(specsDir string, formatter *OutputFormatter) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	var allErrors []compiler.ValidationError
	for _, err := range loadErrors {
		allErrors = append(allErrors, toValidationError(err))
	}

	for _, p := range loadResult.Module.Programs {
		formatter.VerboseLog("Validating %s", p.Name)
		for _, verr := range compiler.Validate(&p) {
			verr.Field = p.Name + "." + verr.Field
			allErrors = append(allErrors, verr)
		}
	}
	for _, inv := range loadResult.Module.Inverses {
		allErrors = append(allErrors, compiler.Validate(inv)...)
	}

	return allErrors, nil
}

// toValidationError converts a loading error to a validation error.
func toValidationError(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		verr := compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
		}
		if loadErr.Pos.IsValid() {
			verr.Line = loadErr.Pos.Line()
		}
		return verr
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ All specs valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Specs that cannot be loaded are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateSpecsDir validates all specs in a directory.
// This is a helper function for external callers.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	silentFormatter := &OutputFormatter{Format: "text", Writer: io.Discard}
	return validateSpecs(specsDir, silentFormatter)
}
