package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ref is a value reference: either a variable bound during evaluation or a
// literal constant baked into the program at trace time.
type Ref struct {
	Name  string  // Variable name; empty for literals
	Value float64 // Literal value; meaningful only when Lit is true
	Lit   bool
}

// Var returns a variable reference.
func Var(name string) Ref {
	return Ref{Name: name}
}

// Lit returns a literal reference.
func Lit(v float64) Ref {
	return Ref{Value: v, Lit: true}
}

// IsVar reports whether r is a variable reference.
func (r Ref) IsVar() bool {
	return !r.Lit
}

// String renders a variable by name and a literal by value.
func (r Ref) String() string {
	if r.Lit {
		return FormatFloat(r.Value)
	}
	return r.Name
}

type refJSON struct {
	Var string   `json:"var,omitempty"`
	Lit *float64 `json:"lit,omitempty"`
}

// MarshalJSON encodes a variable as {"var":"a"} and a literal as {"lit":2}.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Lit {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, fmt.Errorf("literal %v is not representable in JSON", r.Value)
		}
		v := r.Value
		return json.Marshal(refJSON{Lit: &v})
	}
	return json.Marshal(refJSON{Var: r.Name})
}

// UnmarshalJSON implements json.Unmarshaler for Ref.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var raw refJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Lit != nil && raw.Var != "":
		return fmt.Errorf("ref has both var %q and lit", raw.Var)
	case raw.Lit != nil:
		*r = Lit(*raw.Lit)
	case raw.Var != "":
		*r = Var(raw.Var)
	default:
		return fmt.Errorf("ref must have var or lit")
	}
	return nil
}

// Instruction is a single operation application with one output variable.
type Instruction struct {
	Op     OpID  `json:"op"`
	Inputs []Ref `json:"inputs"`
	Output Ref   `json:"output"`
}

// String renders the instruction as "b = tanh a".
func (ins Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Output.String())
	sb.WriteString(" = ")
	sb.WriteString(string(ins.Op))
	for _, in := range ins.Inputs {
		sb.WriteByte(' ')
		sb.WriteString(in.String())
	}
	return sb.String()
}

// Const is a named program constant (a constvar). Its Value is the default
// bound at evaluation time unless the caller supplies an override.
type Const struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Bindings maps variable names to values.
type Bindings map[string]float64

// Program is an ordered, acyclic list of instructions over named values.
//
// INVARIANTS (checked by Validate):
//   - at least one input
//   - every variable is defined exactly once (inputs, consts, instruction outputs)
//   - every instruction input is a literal or a variable defined earlier
//   - every output is a defined variable
type Program struct {
	Name         string        `json:"name,omitempty"`
	Inputs       []Ref         `json:"inputs"`
	Consts       []Const       `json:"consts,omitempty"`
	Instructions []Instruction `json:"instructions"`
	Outputs      []Ref         `json:"outputs"`

	// Examples holds the representative inputs the program was traced at.
	Examples []float64 `json:"examples,omitempty"`
}

// IsUnary reports whether the program has exactly one input and one output.
func (p *Program) IsUnary() bool {
	return len(p.Inputs) == 1 && len(p.Outputs) == 1
}

// OpsUsed returns the distinct operations used, in first-use order.
func (p *Program) OpsUsed() []OpID {
	seen := make(map[OpID]bool)
	var ops []OpID
	for _, ins := range p.Instructions {
		if !seen[ins.Op] {
			seen[ins.Op] = true
			ops = append(ops, ins.Op)
		}
	}
	return ops
}

// String renders the program in a jaxpr-like listing:
//
//	{ lambda k ; a. let
//	    b = tanh a
//	    c = mul b k
//	  in (c) }
func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("{ lambda ")
	for i, c := range p.Consts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Name)
	}
	if len(p.Consts) > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString("; ")
	sb.WriteString(joinRefs(p.Inputs, " "))
	sb.WriteString(". let")
	for _, ins := range p.Instructions {
		sb.WriteString("\n    ")
		sb.WriteString(ins.String())
	}
	sb.WriteString("\n  in (")
	sb.WriteString(joinRefs(p.Outputs, ", "))
	sb.WriteString(") }")
	return sb.String()
}

func joinRefs(refs []Ref, sep string) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}

// FormatFloat renders a float with the shortest round-trip decimal form,
// keeping a ".0" suffix on integral values so literals read as floats.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
