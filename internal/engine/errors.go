package engine

import (
	"errors"
	"fmt"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// RuntimeError represents a Runner failure that is not an evaluation error.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, if any.
	RunID string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoStore indicates an operation needed a store the Runner lacks.
	ErrCodeNoStore RuntimeErrorCode = "NO_STORE"

	// ErrCodeReplayMismatch indicates a replayed run disagreed with its record.
	ErrCodeReplayMismatch RuntimeErrorCode = "REPLAY_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsReplayMismatch returns true if err reports a replay disagreement.
func IsReplayMismatch(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReplayMismatch
	}
	return false
}

// Run error codes recorded for failures that are not *ir.Error.
const (
	RunErrorQuota   = "QUOTA_EXCEEDED"
	RunErrorGeneric = "ERROR"
)

// RunErrorCode maps an evaluation error to the code stored on its run.
// It returns "" for nil.
func RunErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	if ops.IsDomainError(err) {
		return ops.DomainErrorCode
	}
	if IsStepsExceededError(err) {
		return RunErrorQuota
	}
	return RunErrorGeneric
}
