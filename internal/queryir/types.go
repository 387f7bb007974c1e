package queryir

import "github.com/gradient-ai/jax-gradient/internal/ir"

// Field names a filterable column of the runs table.
type Field string

const (
	FieldProgramID Field = "program_id"
	FieldDirection Field = "direction"
	FieldRunToken  Field = "run_token"
	FieldErrorCode Field = "error_code"
)

// Fields lists every filterable column.
var Fields = []Field{FieldProgramID, FieldDirection, FieldRunToken, FieldErrorCode}

// Query selects runs matching Filter, ordered by seq.
type Query struct {
	Filter Predicate // nil selects every run
	Limit  int       // 0 means no limit
}

// Predicate is a filter condition over run columns.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals matches runs whose Field column equals Value.
//
//	Equals{Field: FieldDirection, Value: "inverse"}
//
// Translates to SQL:
//
//	direction = ?
type Equals struct {
	Field Field
	Value string
}

func (Equals) predicateNode() {}

// Failed matches failed runs, or successful runs when Want is false.
type Failed struct {
	Want bool
}

func (Failed) predicateNode() {}

// And matches runs satisfying every predicate. An empty And matches all
// runs.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds a Query from the non-nil predicates.
// A single predicate is used as the filter directly.
func Where(preds ...Predicate) Query {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Query{}
	case 1:
		return Query{Filter: kept[0]}
	}
	return Query{Filter: And{Predicates: kept}}
}

// ForProgram matches the runs of one program ID.
func ForProgram(programID string) Predicate {
	return Equals{Field: FieldProgramID, Value: programID}
}

// ForDirection matches runs evaluated in direction d.
func ForDirection(d ir.Direction) Predicate {
	return Equals{Field: FieldDirection, Value: string(d)}
}
