package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/gradient-ai/jax-gradient/internal/compiler"
	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Module    *compiler.Module
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads and compiles the CUE specs in a directory.
//
// A nil result means the directory could not be loaded at all. Otherwise
// the result holds every block that compiled, and the errors describe the
// ones that did not: the first only with LoadModeFailFast, all of them with
// LoadModeCollectAll.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, err := compiler.LoadInstance(dir)
	if err != nil {
		return nil, []error{convertCompileError(err, "load")}
	}

	compileMode := compiler.ModeCollectAll
	if mode == LoadModeFailFast {
		compileMode = compiler.ModeFailFast
	}
	module, compileErrs := compiler.CompileModule(value, compileMode)

	result := &LoadResult{
		Module:    module,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	var errs []error
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err, "compile"))
	}

	if len(module.Programs) == 0 && len(module.Inverses) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no functions, programs or inverses found in specs"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		message := compileErr.Message
		if compileErr.Field != compiler.FieldLoad && compileErr.Field != compiler.FieldBuild {
			message = compileErr.Field + ": " + message
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// loadProgram loads the specs in dir and returns the named program with the
// registry built from the standard inverses and the specs' inverse blocks.
func loadProgram(dir, name string) (*ir.Program, *ops.Registry, error) {
	result, errs := LoadSpecs(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, nil, errs[0]
	}
	p, ok := result.Module.Program(name)
	if !ok {
		return nil, nil, &LoadError{
			Code:    ErrCodeUnknownName,
			Message: fmt.Sprintf("no function or program named %q (have %s)", name, strings.Join(result.Module.Names(), ", ")),
		}
	}
	reg, err := result.Module.Registry(nil)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return p, reg, nil
}

// loadErrorCode returns the code and message of a loading error.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// Error code constants - unified across all CLI commands.
// Compiler validation codes (E1xx) are defined in the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeUnknownName = "E008" // No function or program with that name
	ErrCodeBadFlag     = "E009" // Flag value could not be parsed
	ErrCodeStore       = "E010" // Database could not be opened or read
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == compiler.FieldLoad:
		return ErrCodeLoadFailed
	case field == compiler.FieldBuild:
		return ErrCodeBuildFailed
	case strings.HasPrefix(field, "inverse."):
		return compiler.ErrInverseNotUnary
	case strings.HasSuffix(field, ".op"):
		return compiler.ErrUnknownOperation
	case strings.HasSuffix(field, ".constvar"):
		return compiler.ErrDuplicateName
	case strings.HasSuffix(field, ".inputs"):
		return compiler.ErrProgramNoInputs
	case strings.HasSuffix(field, ".outputs"):
		return compiler.ErrProgramNoOutputs
	default:
		return ErrCodeGeneric
	}
}
