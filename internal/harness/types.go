package harness

import "github.com/gradient-ai/jax-gradient/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success: every case matched.
	Pass bool `json:"pass"`

	// Program is the listing of the program under test.
	Program string `json:"program"`

	// Inverse is the listing of the explicit inverse program, or the error
	// code explaining why there is none.
	Inverse string `json:"inverse"`

	// Runs is the run log read back from the store, in seq order.
	Runs []ir.Run `json:"runs"`

	// Errors contains case failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []ir.Run{},
		Errors: []string{},
	}
}

// AddError adds a case failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
