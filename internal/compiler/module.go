package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/ops"
)

// Mode controls how errors are handled while compiling a module.
type Mode int

const (
	// ModeFailFast stops on the first error encountered.
	ModeFailFast Mode = iota
	// ModeCollectAll collects all errors before returning.
	ModeCollectAll
)

// Module is the compiled content of a set of CUE definitions.
type Module struct {
	// Programs holds functions, then programs, each in declaration order.
	Programs []ir.Program
	Inverses []InverseAlias
}

// Program returns the program named name.
func (m *Module) Program(name string) (*ir.Program, bool) {
	for i := range m.Programs {
		if m.Programs[i].Name == name {
			return &m.Programs[i], true
		}
	}
	return nil, false
}

// Names returns the program names in module order.
func (m *Module) Names() []string {
	names := make([]string, len(m.Programs))
	for i, p := range m.Programs {
		names[i] = p.Name
	}
	return names
}

// Registry returns a copy of base (ops.Default when nil) with the module's
// inverse aliases applied.
func (m *Module) Registry(base *ops.Registry) (*ops.Registry, error) {
	if base == nil {
		base = ops.Default
	}
	reg := base.Clone()
	if err := ApplyInverses(reg, m.Inverses); err != nil {
		return nil, err
	}
	return reg, nil
}

// CompileModule compiles the function, program and inverse blocks of v.
// Compile errors carry the block path in their Field.
func CompileModule(v cue.Value, mode Mode) (*Module, []error) {
	m := &Module{}
	var errs []error
	seen := make(map[string]string)

	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == ModeFailFast
	}

	compileBlock := func(block string, compile func(cue.Value) (*ir.Program, error)) bool {
		val := v.LookupPath(cue.ParsePath(block))
		if !val.Exists() {
			return false
		}
		iter, err := val.Fields()
		if err != nil {
			return fail(formatCUEErrorField(block, err))
		}
		for iter.Next() {
			name := iter.Label()
			p, err := compile(iter.Value())
			if err != nil {
				if fail(prefixField(block+"."+name, err)) {
					return true
				}
				continue
			}
			if prev, ok := seen[name]; ok {
				if fail(&CompileError{
					Field:   block + "." + name,
					Message: fmt.Sprintf("name already defined by %s.%s", prev, name),
					Pos:     iter.Value().Pos(),
				}) {
					return true
				}
				continue
			}
			seen[name] = block
			m.Programs = append(m.Programs, *p)
		}
		return false
	}

	if compileBlock("function", CompileFunction) {
		return m, errs
	}
	if compileBlock("program", CompileProgram) {
		return m, errs
	}

	invVal := v.LookupPath(cue.ParsePath("inverse"))
	if invVal.Exists() {
		iter, err := invVal.Fields()
		if err != nil {
			errs = append(errs, formatCUEErrorField("inverse", err))
			return m, errs
		}
		for iter.Next() {
			alias, err := CompileInverse(iter.Value())
			if err != nil {
				if fail(err) {
					return m, errs
				}
				continue
			}
			m.Inverses = append(m.Inverses, alias)
		}
	}

	return m, errs
}

// prefixField qualifies the field of a CompileError with the block path.
func prefixField(prefix string, err error) error {
	ce, ok := err.(*CompileError)
	if !ok {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	out := *ce
	if out.Field == "" {
		out.Field = prefix
	} else {
		out.Field = prefix + "." + out.Field
	}
	return &out
}
