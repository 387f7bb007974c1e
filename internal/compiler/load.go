package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Compile error fields for loading failures.
const (
	FieldLoad  = "load"
	FieldBuild = "build"
)

// LoadInstance loads CUE definitions from dir and builds them into a single
// value. With no files, the package in dir is loaded; otherwise only the
// named files, relative to dir.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func LoadInstance(dir string, files ...string) (cue.Value, error) {
	args := files
	if len(args) == 0 {
		args = []string{"."}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &CompileError{Field: FieldLoad, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEErrorField(FieldLoad, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEErrorField(FieldBuild, err)
	}
	return value, nil
}

// Load loads the definitions in dir and compiles them, failing on the first
// error.
func Load(dir string, files ...string) (*Module, error) {
	v, err := LoadInstance(dir, files...)
	if err != nil {
		return nil, err
	}
	m, errs := CompileModule(v, ModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return m, nil
}
