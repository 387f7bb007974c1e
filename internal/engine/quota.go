package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default maximum number of instructions one Runner
// call may execute.
const DefaultMaxSteps = 10000

// QuotaEnforcer counts executed instructions and enforces a step limit.
// Each evaluation gets its own enforcer.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
// Returns *StepsExceededError once the limit is passed.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{Steps: q.current, Limit: q.maxSteps}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when an evaluation exceeds the step quota.
type StepsExceededError struct {
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("evaluation exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
