package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const functionsCUE = `package specs

function: expTanh: {
	ops: ["tanh", "exp"]
	example: 1.0
}

function: scaled: {
	ops: [
		{op: "mul", constvar: "k", value: 2},
		{op: "add", const: 0.5},
	]
}

inverse: square: "sqrt"
`

const corruptCUE = `package specs

program: corrupt: {
	inputs: ["a"]
	instructions: [
		{op: "tanh", args: ["c"], out: "b"},
		{op: "exp", args: ["a"], out: "c"},
	]
	outputs: ["b"]
}
`

// writeSpecs creates a specs directory holding the given files.
func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "specs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// validSpecs returns a specs directory with expTanh and scaled.
func validSpecs(t *testing.T) string {
	t.Helper()
	return writeSpecs(t, map[string]string{"functions.cue": functionsCUE})
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
