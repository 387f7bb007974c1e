package harness

import (
	"fmt"
	"math"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// Case check names.
const (
	CheckForward = "forward"
	CheckInverse = "inverse"
	CheckError   = "expect_error"
)

// CaseError is returned when a case check fails.
// It includes detailed context to help debug the failure.
type CaseError struct {
	Case     int    // Index of the case in the scenario
	Check    string // Which check failed
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *CaseError) Error() string {
	return fmt.Sprintf("cases[%d] %s: expected %s, got %s", e.Case, e.Check, e.Expected, e.Actual)
}

// checkClose compares got to want within an absolute tolerance.
// NaN never matches.
func checkClose(index int, check string, want, got, tolerance float64) *CaseError {
	if math.Abs(got-want) <= tolerance {
		return nil
	}
	return &CaseError{
		Case:     index,
		Check:    check,
		Expected: fmt.Sprintf("%s (±%s)", ir.FormatFloat(want), ir.FormatFloat(tolerance)),
		Actual:   ir.FormatFloat(got),
	}
}

// checkErrorCode compares the code of the case's failing run, if any, with
// the expected code. An empty want means the case must not fail.
func checkErrorCode(index int, want, got string) *CaseError {
	if want == got {
		return nil
	}
	e := &CaseError{Case: index, Check: CheckError, Expected: want, Actual: got}
	if want == "" {
		e.Expected = "no error"
	}
	if got == "" {
		e.Actual = "no error"
	}
	return e
}
