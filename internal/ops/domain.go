package ops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// DomainErrorCode is recorded for runs that failed with a *DomainError.
const DomainErrorCode = "DOMAIN_ERROR"

// DomainError reports an argument outside the domain of an elementary
// function.
type DomainError struct {
	Op     ir.OpID
	Args   []float64
	Reason string
}

func (e *DomainError) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = ir.FormatFloat(a)
	}
	return fmt.Sprintf("domain error: %s(%s): %s", e.Op, strings.Join(args, ", "), e.Reason)
}

func domainError(op ir.OpID, reason string, args ...float64) *DomainError {
	return &DomainError{Op: op, Args: args, Reason: reason}
}

// IsDomainError returns true if err is (or wraps) a *DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
