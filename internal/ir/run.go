package ir

// Direction says which way a program was evaluated.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionInverse Direction = "inverse"
)

// ProgramRecord is a stored program (store-layer).
type ProgramRecord struct {
	ID        string  `json:"id"` // Content-addressed (ProgramID)
	Name      string  `json:"name"`
	Program   Program `json:"program"`
	IRVersion string  `json:"ir_version"`
	Seq       int64   `json:"seq"` // Logical clock
}

// Run is one recorded forward evaluation or inversion (store-layer).
type Run struct {
	ID        string    `json:"id"` // Content-addressed (RunID)
	RunToken  string    `json:"run_token"`
	ProgramID string    `json:"program_id"`
	Direction Direction `json:"direction"`
	Inputs    []float64 `json:"inputs"`
	Consts    Bindings  `json:"consts,omitempty"`     // Constvar overrides of a forward run
	Outputs   []float64 `json:"outputs"`              // Empty when the run failed
	ErrorCode string    `json:"error_code,omitempty"` // ErrorCode, or "DOMAIN_ERROR"/"ERROR"
	Seq       int64     `json:"seq"`
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool {
	return r.ErrorCode != ""
}
