package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradient-ai/jax-gradient/internal/engine"
	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Inverse bool // list the inverse program instead
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Name    string     `json:"name"`
	ID      string     `json:"id"`
	Listing string     `json:"listing"`
	Program ir.Program `json:"program"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <specs-dir> <name>",
		Short: "Print the listing of a function or program",
		Long: `Print the instruction listing of one function or program.

With --inverse, print the program that computes the input from the output,
built from the registered inverse operations.

Examples:
  jaxinv show ./specs expTanh
  jaxinv show ./specs expTanh --inverse`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Inverse, "inverse", false, "show the inverse program")

	return cmd
}

func runShow(opts *ShowOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, reg, err := loadProgram(specsDir, name)
	if err != nil {
		code, message := loadErrorCode(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	if opts.Inverse {
		inv, err := engine.InverseProgram(p, reg)
		if err != nil {
			code := engine.RunErrorCode(err)
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitFailure, "no inverse program", err)
		}
		p = inv
	}

	id, err := ir.ProgramID(p)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "program ID", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ShowResult{
			Name:    p.Name,
			ID:      id,
			Listing: p.String(),
			Program: *p,
		})
	}
	formatter.VerboseLog("%s %s", p.Name, id)
	return formatter.Success(p.String())
}
